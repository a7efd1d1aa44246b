// Package feed filters and orders in-memory build listings. Everything
// here is pure: inputs are never mutated.
package feed

import (
	"slices"
	"strings"

	"github.com/dom/wedge-builds/internal/domain"
)

// All disables the element or weapon type filter.
const All = "all"

type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortPopular SortKey = "popular"
)

func (k SortKey) IsValid() bool {
	switch k {
	case SortNewest, SortOldest, SortPopular:
		return true
	}
	return false
}

// Catalog resolves build subjects for the element and weapon type filters.
type Catalog interface {
	CharacterElement(id string) (domain.Element, bool)
	WeaponType(id string) (string, bool)
}

type Filters struct {
	SearchQuery string
	Element     string
	WeaponType  string
}

func (f Filters) elementActive() bool {
	return f.Element != "" && f.Element != All
}

func (f Filters) weaponTypeActive() bool {
	return f.WeaponType != "" && f.WeaponType != All
}

// ApplyFilters keeps the builds matching every active filter, in input
// order. The search query is a case-insensitive substring match against
// the build name, creator and item name. Element and weapon type resolve
// the build's itemId through the catalog, so builds whose subject is not a
// character (or weapon) drop out whenever that filter is active.
func ApplyFilters(builds []*domain.Build, f Filters, catalog Catalog) []*domain.Build {
	query := strings.ToLower(f.SearchQuery)

	out := make([]*domain.Build, 0, len(builds))
	for _, b := range builds {
		if query != "" && !matchesQuery(b, query) {
			continue
		}
		if f.elementActive() {
			element, ok := catalog.CharacterElement(b.ItemID)
			if !ok || string(element) != f.Element {
				continue
			}
		}
		if f.weaponTypeActive() {
			weaponType, ok := catalog.WeaponType(b.ItemID)
			if !ok || weaponType != f.WeaponType {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func matchesQuery(b *domain.Build, query string) bool {
	return strings.Contains(strings.ToLower(b.BuildName), query) ||
		strings.Contains(strings.ToLower(b.Creator), query) ||
		strings.Contains(strings.ToLower(b.ItemName), query)
}

// SortBuilds returns a sorted copy of builds. Equal keys keep their input
// order. An unknown key sorts newest first.
func SortBuilds(builds []*domain.Build, key SortKey) []*domain.Build {
	out := slices.Clone(builds)

	switch key {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b *domain.Build) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortPopular:
		slices.SortStableFunc(out, func(a, b *domain.Build) int {
			return b.VoteCount - a.VoteCount
		})
	default:
		slices.SortStableFunc(out, func(a, b *domain.Build) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}
