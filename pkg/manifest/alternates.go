package manifest

import (
	"slices"

	"github.com/albertocavalcante/compflags/pkg/util"
)

// WithAlternates returns deps extended so that both members of every
// alternate pair are present when either one is declared. table maps a
// packaging variant to its counterpart and is applied in both directions.
// A partner inherits the version glob and libraries of the declared entry;
// a library named after the declared dependency is renamed to the partner.
func WithAlternates(deps []Dependency, table map[string]string) []Dependency {
	if len(table) == 0 {
		return deps
	}

	partners := make(map[string]string, 2*len(table))
	for _, a := range util.SortedKeys(table) {
		b := table[a]
		if a == "" || b == "" || a == b {
			continue
		}
		if _, ok := partners[a]; !ok {
			partners[a] = b
		}
		if _, ok := partners[b]; !ok {
			partners[b] = a
		}
	}

	declared := make(map[string]bool, len(deps))
	for _, d := range deps {
		declared[d.Name] = true
	}

	out := slices.Clone(deps)
	for _, d := range deps {
		partner, ok := partners[d.Name]
		if !ok || declared[partner] {
			continue
		}
		declared[partner] = true

		libs := make([]string, len(d.Libraries))
		for i, lib := range d.Libraries {
			if lib == d.Name {
				lib = partner
			}
			libs[i] = lib
		}
		out = append(out, Dependency{
			Name:      partner,
			Version:   d.Version,
			Libraries: libs,
		})
	}
	return out
}
