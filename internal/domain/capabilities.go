package domain

import "sort"

// CapabilitySet is the effective permission set of a role. super_admin holds every
// permission whether or not it was granted explicitly.
type CapabilitySet struct {
	all   bool
	codes map[string]struct{}
}

func Capabilities(role Role, granted []string) CapabilitySet {
	set := CapabilitySet{
		all:   role == RoleSuperAdmin,
		codes: make(map[string]struct{}, len(granted)),
	}
	for _, code := range granted {
		set.codes[code] = struct{}{}
	}
	return set
}

func (c CapabilitySet) All() bool {
	return c.all
}

func (c CapabilitySet) Has(code string) bool {
	if c.all {
		return true
	}
	_, ok := c.codes[code]
	return ok
}

// Missing returns the first required code the set lacks, or "" when all are held
func (c CapabilitySet) Missing(required ...string) string {
	for _, code := range required {
		if !c.Has(code) {
			return code
		}
	}
	return ""
}

// Codes returns the explicit grants, sorted
func (c CapabilitySet) Codes() []string {
	codes := make([]string, 0, len(c.codes))
	for code := range c.codes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
