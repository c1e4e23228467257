// Package roster provides the list of known rider names.
package roster

import (
	"slices"
	"strings"
)

// Roster is an immutable, ordered list of rider names ("First LAST").
// The order matters: rider matching stops at the first matching entry.
type Roster struct {
	names []string
}

// New creates a roster. Blank entries are skipped, names are trimmed.
func New(names ...string) Roster {
	ret := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			ret = append(ret, n)
		}
	}
	return Roster{names: ret}
}

func (r Roster) Len() int {
	return len(r.names)
}

func (r Roster) At(i int) string {
	return r.names[i]
}

// Names returns a copy of the roster entries.
func (r Roster) Names() []string {
	return slices.Clone(r.names)
}

func (r Roster) Contains(name string) bool {
	return slices.Contains(r.names, name)
}

// Provider hands out the roster snapshot to use for one processing run.
type Provider interface {
	Current() Roster
}

// Current makes a Roster its own Provider.
func (r Roster) Current() Roster {
	return r
}
