package access

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is an actor's capability class. The zero value grants nothing.
type Role string

const (
	RoleNone           Role = ""
	RoleAdmin          Role = "admin"
	RoleClient         Role = "client"
	RoleDataManager    Role = "dataManager"
	RoleDataQA         Role = "dataQA"
	RoleDataScientist  Role = "dataScientist"
	RolePromptEngineer Role = "promptEngineer"
)

var allRoles = []Role{
	RoleAdmin,
	RoleClient,
	RoleDataManager,
	RoleDataQA,
	RoleDataScientist,
	RolePromptEngineer,
}

var roleSet = func() map[Role]struct{} {
	m := make(map[Role]struct{}, len(allRoles))
	for _, r := range allRoles {
		m[r] = struct{}{}
	}
	return m
}()

// AllRoles returns the six assignable roles in display order.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole converts a raw string into a Role. Matching ignores case so CLI
// input like "datamanager" resolves; unknown values report false.
func ParseRole(value string) (Role, bool) {
	trimmed := strings.TrimSpace(value)
	for _, r := range allRoles {
		if strings.EqualFold(string(r), trimmed) {
			return r, true
		}
	}
	return RoleNone, false
}

// Valid reports whether r is one of the six assignable roles.
func (r Role) Valid() bool {
	_, ok := roleSet[r]
	return ok
}

// Label renders the role for humans, e.g. "Data QA".
func (r Role) Label() string {
	if r == RoleNone {
		return "Unassigned"
	}
	return cases.Title(language.English, cases.NoLower).String(splitCamel(string(r)))
}

func splitCamel(value string) string {
	var b strings.Builder
	runes := []rune(value)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Identity is the acting user as resolved by the identity provider.
type Identity struct {
	UserID      string
	DisplayName string
	Role        Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Name returns the display name, falling back to the user id.
func (i Identity) Name() string {
	if strings.TrimSpace(i.DisplayName) != "" {
		return i.DisplayName
	}
	return i.UserID
}
