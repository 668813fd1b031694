package artifacts

import (
	"slices"
	"sort"
)

// SwitchSet is the set of boolean switches the host parsed.
type SwitchSet map[string]struct{}

// NewSwitchSet returns a set containing names.
func NewSwitchSet(names ...string) SwitchSet {
	set := make(SwitchSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// Has reports whether name is set.
func (s SwitchSet) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// Sorted returns the switch names in lexical order.
func (s SwitchSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Setting is one name/value option.
type Setting struct {
	Name  string
	Value string
}

// ParsedArguments are the host-side switches and settings of a command.
// Settings keep insertion order.
type ParsedArguments struct {
	Switches SwitchSet
	Settings []Setting
}

// AddSwitch records a switch.
func (p *ParsedArguments) AddSwitch(name string) {
	if p.Switches == nil {
		p.Switches = make(SwitchSet)
	}

	p.Switches[name] = struct{}{}
}

// SetOption records a setting, replacing an earlier value of the same name in place.
func (p *ParsedArguments) SetOption(name, value string) {
	idx := slices.IndexFunc(p.Settings, func(s Setting) bool { return s.Name == name })
	if idx >= 0 {
		p.Settings[idx].Value = value

		return
	}

	p.Settings = append(p.Settings, Setting{Name: name, Value: value})
}
