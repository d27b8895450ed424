package device

import "strings"

// DefaultNamePrefixes are the advertised name prefixes of supported printer families
var DefaultNamePrefixes = []string{"A", "B", "D", "E", "H", "J", "K", "P", "S", "T"}

// NamePrefixFilter accepts names starting with any of prefixes. Empty prefixes
// are ignored; a filter with no usable prefix rejects every name.
func NamePrefixFilter(prefixes ...string) NameFilter {
	usable := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			usable = append(usable, p)
		}
	}

	return func(name string) bool {
		if name == "" {
			return false
		}
		for _, p := range usable {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
		return false
	}
}
