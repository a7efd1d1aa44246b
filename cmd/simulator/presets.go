package main

import (
	"fmt"

	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/domain"
	"gorm.io/datatypes"
)

const maxPresetMods = 4

// presetBuilds returns one plausible public build per catalog character:
// the prime mod of the character's element, when there is one, followed
// by regular character mods that share the element or have none.
func presetBuilds(cat *catalog.Catalog) []domain.BuildContent {
	characters := cat.Characters()
	presets := make([]domain.BuildContent, 0, len(characters))

	for _, ch := range characters {
		mods := make([]string, 0, maxPresetMods)
		if primes := cat.ModsFor(catalog.ModQuery{PrimeOnly: true, Element: ch.Element}); len(primes) > 0 {
			mods = append(mods, primes[0].Name)
		}
		for _, m := range cat.ModsFor(catalog.ModQuery{Type: domain.ModTypeCharacters}) {
			if len(mods) == maxPresetMods {
				break
			}
			if m.IsPrimeMod || m.CenterOnly {
				continue
			}
			if m.Element == "" || m.Element == ch.Element {
				mods = append(mods, m.Name)
			}
		}

		presets = append(presets, domain.BuildContent{
			BuildName:   fmt.Sprintf("%s %s starter", ch.Name, ch.Element),
			Description: fmt.Sprintf("Simulated %s build for %s.", ch.Role, ch.Name),
			Visibility:  domain.VisibilityPublic,
			ItemType:    domain.ItemTypeCharacter,
			ItemID:      ch.ID,
			Mods:        datatypes.JSONSlice[string](mods),
		})
	}
	return presets
}
