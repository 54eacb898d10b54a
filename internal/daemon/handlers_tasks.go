package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/api"
	"pricingboard/internal/attachments"
	"pricingboard/internal/blobstore"
	"pricingboard/internal/board"
	"pricingboard/internal/dragdrop"
	"pricingboard/internal/pipeline"
)

const multipartMemory = 32 << 20

func (s *apiServer) handleBoard(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	query := r.URL.Query()
	sort, err := board.ParseSort(query.Get("sort"), query.Get("order"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	tasks, err := s.daemon.services.Store.List(r.Context(), board.ListOptions{Stages: board.BoardStages(), Sort: sort})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.BuildBoard(tasks, s.daemon.services.Files, actor.Role))
}

func (s *apiServer) handleArchiveList(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	tasks, err := s.daemon.services.Archive.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskListResponse{Tasks: api.FromTasks(tasks, s.daemon.services.Files, actor.Role)})
}

func (s *apiServer) handleTask(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	task, err := s.daemon.services.Store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TaskResponse{Task: api.FromTask(task, s.daemon.services.Files, actor.Role)})
}

func (s *apiServer) handleCreate(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	if err := s.parseMultipart(w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := pipeline.NewTask{Title: r.FormValue("title")}
	if raw := strings.TrimSpace(r.FormValue("dueDate")); raw != "" {
		due, err := parseDate(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		req.DueDate = &due
	}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		req.File = file
		req.FileName = header.Filename
	case !errors.Is(err, http.ErrMissingFile):
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	task, err := s.daemon.services.Engine.Create(r.Context(), actor, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.TaskResponse{Task: api.FromTask(task, s.daemon.services.Files, actor.Role)})
}

func (s *apiServer) handleEdit(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	if err := s.parseMultipart(w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	engine := s.daemon.services.Engine
	session, err := engine.BeginEdit(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	form := r.MultipartForm.Value
	for _, location := range append(form["remove"], form["remove[]"]...) {
		if err := session.Mark(location); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	var changes attachments.Changes
	if v, ok := formField(r, "title"); ok {
		changes.Title = &v
	}
	if v, ok := formField(r, "link"); ok {
		changes.Link = &v
	}
	if v, ok := formField(r, "dueDate"); ok {
		if strings.TrimSpace(v) == "" {
			changes.ClearDueDate = true
		} else {
			due, err := parseDate(v)
			if err != nil {
				s.fail(w, r, err)
				return
			}
			changes.DueDate = &due
		}
	}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		changes.File = file
		changes.FileName = header.Filename
	case !errors.Is(err, http.ErrMissingFile):
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	res, err := engine.Edit(r.Context(), actor, session, changes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := api.EditResponse{Stale: res.Stale}
	if len(res.Unreleased) > 0 {
		resp.Unreleased = api.FromAttachments(res.Unreleased, nil)
	}
	if res.Task != nil {
		dto := api.FromTask(res.Task, s.daemon.services.Files, actor.Role)
		resp.Task = &dto
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleMove runs a drop through a drag controller built over a fresh board
// snapshot, so permission is checked before the store is touched.
func (s *apiServer) handleMove(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	var req api.MoveRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	to, ok := board.ParseStage(req.ToStage)
	if !ok {
		s.fail(w, r, fmt.Errorf("%w: %q", pipeline.ErrUnknownStage, req.ToStage))
		return
	}
	id := r.PathValue("id")

	tasks, err := s.daemon.services.Store.List(r.Context(), board.ListOptions{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctrl := dragdrop.NewController(s.daemon.services.Engine, actor, dragdrop.NewView(tasks), s.root)
	if err := ctrl.Start(id); err != nil {
		if errors.Is(err, dragdrop.ErrUnknownTask) {
			s.writeJSON(w, http.StatusOK, api.MoveResponse{Outcome: string(dragdrop.OutcomeStale)})
			return
		}
		s.fail(w, r, err)
		return
	}
	outcome, err := ctrl.Drop(r.Context(), &dragdrop.Target{Stage: to, Index: req.Index})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := api.MoveResponse{Outcome: string(outcome)}
	if task, _, ok := ctrl.View().Find(id); ok {
		dto := api.FromTask(task, s.daemon.services.Files, actor.Role)
		resp.Task = &dto
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	res, err := s.daemon.services.Engine.Remove(r.Context(), actor, r.PathValue("id"), confirmed)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RemoveResponse{Outcome: string(res.Outcome)})
}

func (s *apiServer) handleArchive(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	res, err := s.daemon.services.Archive.Archive(r.Context(), actor, r.PathValue("id"))
	s.writeTransition(w, r, actor, res, err)
}

func (s *apiServer) handleUnarchive(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	res, err := s.daemon.services.Archive.Unarchive(r.Context(), actor, r.PathValue("id"))
	s.writeTransition(w, r, actor, res, err)
}

func (s *apiServer) writeTransition(w http.ResponseWriter, r *http.Request, actor access.Identity, res pipeline.TransitionResult, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := api.TransitionResponse{Outcome: string(res.Outcome), From: string(res.From), To: string(res.To)}
	if res.Task != nil {
		dto := api.FromTask(res.Task, s.daemon.services.Files, actor.Role)
		resp.Task = &dto
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleSweep(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	report, err := s.daemon.services.Archive.Run(r.Context(), actor)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSweepReport(report))
}

func (s *apiServer) handleFile(w http.ResponseWriter, r *http.Request, actor access.Identity) {
	location := r.PathValue("location")
	files := s.daemon.services.Files
	if !files.CanView(actor.Role, location) {
		s.fail(w, r, access.Deny(actor.Role, "view files in", board.Stage(blobstore.Folder(location)), ""))
		return
	}
	f, err := s.daemon.services.Blobs.Open(location)
	if errors.Is(err, fs.ErrNotExist) {
		s.writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name := blobstore.BaseName(location)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *apiServer) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return blobstore.ErrTooLarge
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func formField(r *http.Request, key string) (string, bool) {
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(api.DateFormat, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: due date %q must be YYYY-MM-DD", errBadRequest, value)
	}
	return t, nil
}
