package domain

import "strings"

type Role string

const (
	RoleSubject             Role = "SUBJECT"
	RoleGroom               Role = "GROOM"
	RoleBride               Role = "BRIDE"
	RoleFather              Role = "FATHER"
	RoleMother              Role = "MOTHER"
	RoleGrandfatherPaternal Role = "GRANDFATHER_PATERNAL"
	RoleGrandmotherPaternal Role = "GRANDMOTHER_PATERNAL"
	RoleGrandfatherMaternal Role = "GRANDFATHER_MATERNAL"
	RoleGrandmotherMaternal Role = "GRANDMOTHER_MATERNAL"
	RolePriest              Role = "PRIEST"
	RoleGodfather           Role = "GODFATHER"
	RoleGodmother           Role = "GODMOTHER"
	RoleOther               Role = "OTHER"
)

var allRoles = []Role{
	RoleSubject, RoleGroom, RoleBride,
	RoleFather, RoleMother,
	RoleGrandfatherPaternal, RoleGrandmotherPaternal,
	RoleGrandfatherMaternal, RoleGrandmotherMaternal,
	RolePriest, RoleGodfather, RoleGodmother, RoleOther,
}

// AllRoles lists every role in declaration order.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole maps a free-form tag onto the closed role set.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, r := range allRoles {
		if r == candidate {
			return r, true
		}
	}
	return "", false
}

func (r Role) IsSubject() bool {
	return r == RoleSubject || r == RoleGroom || r == RoleBride
}

func (r Role) IsAncestor() bool {
	switch r {
	case RoleFather, RoleMother,
		RoleGrandfatherPaternal, RoleGrandmotherPaternal,
		RoleGrandfatherMaternal, RoleGrandmotherMaternal:
		return true
	}
	return false
}

// IsStructural reports whether the role is derived by the tree walk rather
// than chosen by the caller.
func (r Role) IsStructural() bool {
	return r.IsSubject() || r.IsAncestor()
}

// StructuralRoles returns the subject and ancestor roles.
func StructuralRoles() []Role {
	out := make([]Role, 0, 9)
	for _, r := range allRoles {
		if r.IsStructural() {
			out = append(out, r)
		}
	}
	return out
}

// ImpliedSex is the sex a role implies, or SexUnknown.
func (r Role) ImpliedSex() Sex {
	switch r {
	case RoleFather, RoleGrandfatherPaternal, RoleGrandfatherMaternal, RoleGroom, RolePriest, RoleGodfather:
		return SexMale
	case RoleMother, RoleGrandmotherPaternal, RoleGrandmotherMaternal, RoleBride, RoleGodmother:
		return SexFemale
	}
	return SexUnknown
}

type grandparentKey struct {
	first  Role
	second Role
}

var grandparentRoles = map[grandparentKey]Role{
	{RoleFather, RoleFather}: RoleGrandfatherPaternal,
	{RoleFather, RoleMother}: RoleGrandmotherPaternal,
	{RoleMother, RoleFather}: RoleGrandfatherMaternal,
	{RoleMother, RoleMother}: RoleGrandmotherMaternal,
}

// ResolveRole maps an ancestry path (a root tag followed by FATHER/MOTHER
// hops) to its canonical role. Every input has an answer; anything the table
// does not cover is OTHER.
func ResolveRole(path []Role) Role {
	switch len(path) {
	case 1:
		switch path[0] {
		case RoleSubject, RoleGroom, RoleBride, RoleOther:
			return path[0]
		}
		return RoleSubject
	case 2:
		switch path[1] {
		case RoleFather:
			return RoleFather
		case RoleMother:
			return RoleMother
		}
	case 3:
		if r, ok := grandparentRoles[grandparentKey{path[1], path[2]}]; ok {
			return r
		}
	}
	return RoleOther
}

// AncestorRole is the role stored for the last node of an ancestry path.
// Depths the role table names get their specific role; deeper ancestors fall
// back to the plain FATHER/MOTHER of their last hop so they stay structural.
func AncestorRole(path []Role) Role {
	role := ResolveRole(path)
	if role != RoleOther || len(path) < 2 {
		return role
	}
	switch last := path[len(path)-1]; last {
	case RoleFather, RoleMother:
		return last
	}
	return RoleOther
}
