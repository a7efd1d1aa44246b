package feed_test

import (
	"testing"
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	elements    map[string]domain.Element
	weaponTypes map[string]string
}

func (c fakeCatalog) CharacterElement(id string) (domain.Element, bool) {
	e, ok := c.elements[id]
	return e, ok
}

func (c fakeCatalog) WeaponType(id string) (string, bool) {
	w, ok := c.weaponTypes[id]
	return w, ok
}

var testCatalog = fakeCatalog{
	elements: map[string]domain.Element{
		"char_pyro1":  domain.ElementPyro,
		"char_hydro1": domain.ElementHydro,
	},
	weaponTypes: map[string]string{
		"wpn_sword1": "Sword",
		"wpn_bow1":   "Bow",
	},
}

var base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func build(name, itemID string, ageHours, votes int) *domain.Build {
	b := &domain.Build{
		Creator:   "someone",
		VoteCount: votes,
		CreatedAt: base.Add(-time.Duration(ageHours) * time.Hour),
	}
	b.BuildName = name
	b.ItemID = itemID
	b.ItemName = itemID
	return b
}

func names(builds []*domain.Build) []string {
	out := make([]string, len(builds))
	for i, b := range builds {
		out[i] = b.BuildName
	}
	return out
}

func TestApplyFilters_ElementComposition(t *testing.T) {
	builds := []*domain.Build{
		build("Fire DPS", "char_pyro1", 1, 0),
		build("Ice Tank", "char_hydro1", 2, 0),
	}

	got := feed.ApplyFilters(builds, feed.Filters{Element: "Pyro"}, testCatalog)
	assert.Equal(t, []string{"Fire DPS"}, names(got))
}

func TestApplyFilters_NoFiltersIsIdentity(t *testing.T) {
	builds := []*domain.Build{
		build("A", "char_pyro1", 1, 3),
		build("B", "wpn_bow1", 2, 1),
		build("C", "char_hydro1", 3, 2),
	}

	got := feed.ApplyFilters(builds, feed.Filters{SearchQuery: "", Element: feed.All, WeaponType: feed.All}, testCatalog)
	require.Len(t, got, len(builds))
	for i := range builds {
		assert.Same(t, builds[i], got[i])
	}
}

func TestApplyFilters(t *testing.T) {
	fire := build("Fire DPS", "char_pyro1", 1, 0)
	fire.Creator = "Ashen"
	tank := build("Ice Tank", "char_hydro1", 2, 0)
	sword := build("Sword Crit", "wpn_sword1", 3, 0)
	bow := build("Sniper", "wpn_bow1", 4, 0)
	all := []*domain.Build{fire, tank, sword, bow}

	tests := []struct {
		name    string
		filters feed.Filters
		want    []string
	}{
		{name: "search build name case-insensitive", filters: feed.Filters{SearchQuery: "fire"}, want: []string{"Fire DPS"}},
		{name: "search creator", filters: feed.Filters{SearchQuery: "ASHEN"}, want: []string{"Fire DPS"}},
		{name: "search item name", filters: feed.Filters{SearchQuery: "bow1"}, want: []string{"Sniper"}},
		{name: "weapon type", filters: feed.Filters{WeaponType: "Sword"}, want: []string{"Sword Crit"}},
		{name: "weapon builds drop out of element filter", filters: feed.Filters{Element: "Hydro"}, want: []string{"Ice Tank"}},
		{name: "character builds drop out of weapon filter", filters: feed.Filters{WeaponType: "Bow", SearchQuery: "i"}, want: []string{"Sniper"}},
		{name: "trailing space is part of the query", filters: feed.Filters{SearchQuery: "dps "}, want: []string{}},
		{name: "whitespace query is matched literally", filters: feed.Filters{SearchQuery: "  "}, want: []string{}},
		{name: "filters compose with and", filters: feed.Filters{Element: "Pyro", SearchQuery: "tank"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed.ApplyFilters(all, tt.filters, testCatalog)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSortBuilds(t *testing.T) {
	a := build("A", "x", 3, 5)
	b := build("B", "x", 1, 2)
	c := build("C", "x", 2, 5)
	input := []*domain.Build{a, b, c}

	tests := []struct {
		key  feed.SortKey
		want []string
	}{
		{key: feed.SortNewest, want: []string{"B", "C", "A"}},
		{key: feed.SortOldest, want: []string{"A", "C", "B"}},
		{key: feed.SortPopular, want: []string{"A", "C", "B"}},
		{key: feed.SortKey("bogus"), want: []string{"B", "C", "A"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := feed.SortBuilds(input, tt.key)
			assert.Equal(t, tt.want, names(got))
			assert.Equal(t, []string{"A", "B", "C"}, names(input), "input must not be reordered")
		})
	}
}

func TestSortBuilds_PopularIsStableAndIdempotent(t *testing.T) {
	input := []*domain.Build{
		build("first-zero", "x", 1, 0),
		build("top", "x", 2, 9),
		build("second-zero", "x", 3, 0),
		build("mid", "x", 4, 4),
		build("third-zero", "x", 5, 0),
	}

	once := feed.SortBuilds(input, feed.SortPopular)
	twice := feed.SortBuilds(once, feed.SortPopular)

	assert.Equal(t, []string{"top", "mid", "first-zero", "second-zero", "third-zero"}, names(once))
	assert.Equal(t, names(once), names(twice))
}
