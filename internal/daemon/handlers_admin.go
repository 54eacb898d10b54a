package daemon

import (
	"net/http"
	"strings"

	"pricingboard/internal/access"
	"pricingboard/internal/api"
	"pricingboard/internal/logging"
)

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	status := s.daemon.Status(r.Context())
	counts := make(map[string]int, len(status.Counts))
	for stage, n := range status.Counts {
		counts[string(stage)] = n
	}
	me := api.FromIdentity(actor)
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Counts:       counts,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Checks:       api.FromCheckResults(status.Checks),
		Identity:     &me,
	})
}

func (s *apiServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		s.writeError(w, http.StatusBadRequest, "display name is required")
		return
	}
	reg, err := s.daemon.services.Identity.Register(r.Context(), req.DisplayName, req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("user registered", logging.String("user_id", reg.User.ID))
	s.writeJSON(w, http.StatusCreated, api.RegisterResponse{User: api.FromUser(reg.User), Token: reg.Token})
}

func (s *apiServer) handleUsers(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	users, err := s.daemon.services.Identity.ListUsers(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := api.UserListResponse{Users: make([]api.User, 0, len(users))}
	for _, user := range users {
		resp.Users = append(resp.Users, api.FromUser(user))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleAssignRole(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	var req api.AssignRoleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	user, err := s.daemon.services.Identity.AssignRole(r.Context(), actor, r.PathValue("id"), req.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromUser(user))
}

func (s *apiServer) handleRemoveUser(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	removed, err := s.daemon.services.Identity.RemoveUser(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !removed {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
