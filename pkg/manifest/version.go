package manifest

import (
	"slices"
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionOrder selects how matched version directories are ranked.
type VersionOrder string

const (
	// OrderLexical ranks by reverse lexicographic string order. It is only
	// correct for consistently formatted versions: "10.0.0" ranks below "9.0.0".
	OrderLexical VersionOrder = "lexical"

	// OrderNumeric ranks dot-separated numeric components. Names that do not
	// parse as versions rank below every parsable one, lexically among
	// themselves.
	OrderNumeric VersionOrder = "numeric"
)

// SortDescending orders versions newest first according to order.
func SortDescending(versions []string, order VersionOrder) {
	if order != OrderNumeric {
		slices.Sort(versions)
		slices.Reverse(versions)
		return
	}

	parsed := make(map[string]*version.Version, len(versions))
	for _, v := range versions {
		if pv, err := version.NewVersion(v); err == nil {
			parsed[v] = pv
		}
	}

	slices.SortStableFunc(versions, func(a, b string) int {
		pa, pb := parsed[a], parsed[b]
		switch {
		case pa != nil && pb != nil:
			if c := pb.Compare(pa); c != 0 {
				return c
			}
		case pa != nil:
			return -1
		case pb != nil:
			return 1
		}
		return strings.Compare(b, a)
	})
}

// Highest returns the newest version according to order.
func Highest(versions []string, order VersionOrder) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	sorted := slices.Clone(versions)
	SortDescending(sorted, order)
	return sorted[0], true
}
