package domain

import (
	"regexp"
	"strings"
)

// LineageIndex is a dotted path from an event's root subject: "1" is the
// primary subject, "2" the secondary one; ".1" steps to the father and ".2"
// to the mother.
type LineageIndex string

const (
	PrimaryLineage   LineageIndex = "1"
	SecondaryLineage LineageIndex = "2"
)

var lineagePattern = regexp.MustCompile(`^[12](\.[12])*$`)

// RootLineage returns the index of the primary or secondary subject.
func RootLineage(secondary bool) LineageIndex {
	if secondary {
		return SecondaryLineage
	}
	return PrimaryLineage
}

// Child returns the index of the father or mother of the node at l.
func (l LineageIndex) Child(hop Role) LineageIndex {
	if hop == RoleMother {
		return l + ".2"
	}
	return l + ".1"
}

// Depth is the number of generations above the root, 0 for a subject.
func (l LineageIndex) Depth() int {
	if l == "" {
		return 0
	}
	return strings.Count(string(l), ".")
}

func (l LineageIndex) Valid() bool {
	return lineagePattern.MatchString(string(l))
}

// Path rebuilds the ancestry hops encoded in l under the given root role.
func (l LineageIndex) Path(root Role) []Role {
	path := []Role{root}
	if !l.Valid() {
		return path
	}
	parts := strings.Split(string(l), ".")
	for _, p := range parts[1:] {
		if p == "2" {
			path = append(path, RoleMother)
			continue
		}
		path = append(path, RoleFather)
	}
	return path
}
