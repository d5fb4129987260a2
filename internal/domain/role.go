package domain

import "strings"

type Role string

const (
	RoleStudent       Role = "student"
	RoleAssistant     Role = "assistant"
	RoleInstructor    Role = "instructor"
	RoleAdministrator Role = "administrator"
)

// legacyRoles maps the role names issued by the course API.
var legacyRoles = map[string]Role{
	"estudiante":      RoleStudent,
	"ayudante":        RoleAssistant,
	"profesor":        RoleInstructor,
	"profesor_editor": RoleInstructor,
	"administrador":   RoleAdministrator,
}

// ParseRole accepts the canonical role names and the course API names,
// case-insensitively. The empty string parses to the empty role.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	r := Role(name)
	switch r {
	case "", RoleStudent, RoleAssistant, RoleInstructor, RoleAdministrator:
		return r, nil
	}
	if r, ok := legacyRoles[name]; ok {
		return r, nil
	}
	return "", ErrUnknownRole
}

// Privileged reports whether the role may change room-visible state.
func (r Role) Privileged() bool {
	return r == RoleInstructor || r == RoleAdministrator
}
