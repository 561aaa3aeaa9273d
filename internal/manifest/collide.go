package manifest

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Collision is a set of entries whose names fold to the same host identifier.
type Collision struct {
	Key   string
	Names []string
}

// HostKey folds name to NFKC, the form Python and several other hosts use
// when comparing identifiers.
func HostKey(name string) string {
	return norm.NFKC.String(name)
}

// Collisions reports distinct names that fold to one host identifier.
func (m *Manifest) Collisions() []Collision {
	byKey := make(map[string][]string)
	for _, e := range m.Entries {
		k := HostKey(e.Name)
		if !containsName(byKey[k], e.Name) {
			byKey[k] = append(byKey[k], e.Name)
		}
	}
	var out []Collision
	for k, names := range byKey {
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		out = append(out, Collision{Key: k, Names: names})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func containsName(names []string, n string) bool {
	for _, x := range names {
		if x == n {
			return true
		}
	}
	return false
}
