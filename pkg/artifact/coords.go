// Package artifact models the build graph's unit of work: a resolved source
// or binary artifact, its classification, and the shared, process-wide
// BuildRequest every artifact and worker reads from.
package artifact

import "fmt"

// Coords is the opaque, totally-ordered identity of an artifact: group,
// name, version, and an optional classifier (e.g. "sources", "tests").
type Coords struct {
	Group      string
	Name       string
	Version    string
	Classifier string
}

// String renders the canonical Maven-style coordinate string used both for
// logging and as the stable input to hashing (§4.2.2).
func (c Coords) String() string {
	if c.Classifier == "" {
		return fmt.Sprintf("%s:%s:%s", c.Group, c.Name, c.Version)
	}
	return fmt.Sprintf("%s:%s:%s:%s", c.Group, c.Name, c.Version, c.Classifier)
}

// Less gives Coords a total order: group, then name, then version, then
// classifier, lexicographically.
func (c Coords) Less(o Coords) bool {
	if c.Group != o.Group {
		return c.Group < o.Group
	}
	if c.Name != o.Name {
		return c.Name < o.Name
	}
	if c.Version != o.Version {
		return c.Version < o.Version
	}
	return c.Classifier < o.Classifier
}

// Equal is strict field-wise equality.
func (c Coords) Equal(o Coords) bool {
	return c == o
}

// SanitizedKey returns a filesystem-safe rendering of the coordinate,
// suitable as the {coords-sanitized} component of a cache slot path
// (§6: Filesystem layout).
func (c Coords) SanitizedKey() string {
	key := c.String()
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch ch := key[i]; {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-' || ch == '_' || ch == '.':
			out = append(out, ch)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
