package domain

// Element is the elemental affinity of a character or mod.
type Element string

const (
	ElementLumino  Element = "Lumino"
	ElementAnemo   Element = "Anemo"
	ElementHydro   Element = "Hydro"
	ElementPyro    Element = "Pyro"
	ElementElectro Element = "Electro"
	ElementUmbro   Element = "Umbro"
)

// AllElements contains all valid elements in display order
var AllElements = []Element{ElementLumino, ElementAnemo, ElementHydro, ElementPyro, ElementElectro, ElementUmbro}

// IsValid checks if an element is valid
func (e Element) IsValid() bool {
	switch e {
	case ElementLumino, ElementAnemo, ElementHydro, ElementPyro, ElementElectro, ElementUmbro:
		return true
	}
	return false
}

// ModType is the equipment category a mod can be slotted into.
type ModType string

const (
	ModTypeCharacters             ModType = "Characters"
	ModTypeMeleeWeapon            ModType = "Melee Weapon"
	ModTypeRangedWeapon           ModType = "Ranged Weapon"
	ModTypeMeleeConsonanceWeapon  ModType = "Melee Consonance Weapon"
	ModTypeRangedConsonanceWeapon ModType = "Ranged Consonance Weapon"
)

func (t ModType) IsValid() bool {
	switch t {
	case ModTypeCharacters, ModTypeMeleeWeapon, ModTypeRangedWeapon, ModTypeMeleeConsonanceWeapon, ModTypeRangedConsonanceWeapon:
		return true
	}
	return false
}

type Character struct {
	ID               string  `json:"id" yaml:"id"`
	Name             string  `json:"name" yaml:"name"`
	Element          Element `json:"element" yaml:"element"`
	Role             string  `json:"role" yaml:"role"`
	MeleeWeaponType  string  `json:"meleeWeaponType" yaml:"meleeWeaponType"`
	RangedWeaponType string  `json:"rangedWeaponType" yaml:"rangedWeaponType"`
	Rarity           int     `json:"rarity" yaml:"rarity"`
	Lore             string  `json:"lore,omitempty" yaml:"lore"`
}

type Weapon struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`             // e.g. "Sword", "Pistol"
	AttackType string `json:"attackType" yaml:"attackType"` // "Slash", "Smash", "Spike"
	MaxAttack  int    `json:"maxAttack" yaml:"maxAttack"`
	Rarity     int    `json:"rarity" yaml:"rarity"`
}

// Mod is a Demon Wedge. Name is the unique key.
type Mod struct {
	Name           string  `json:"name" yaml:"name"`
	Rarity         int     `json:"rarity" yaml:"rarity"`
	ModType        ModType `json:"modType" yaml:"modType"`
	Element        Element `json:"element,omitempty" yaml:"element"`
	Symbol         string  `json:"symbol,omitempty" yaml:"symbol"`
	MainAttribute  string  `json:"mainAttribute" yaml:"mainAttribute"`
	Effect         string  `json:"effect,omitempty" yaml:"effect"`
	Tolerance      int     `json:"tolerance" yaml:"tolerance"`
	Track          int     `json:"track" yaml:"track"`
	Source         string  `json:"source" yaml:"source"`
	Image          string  `json:"image" yaml:"image"`
	IsPrimeMod     bool    `json:"isPrimeMod,omitempty" yaml:"isPrimeMod"`
	ToleranceBoost int     `json:"toleranceBoost,omitempty" yaml:"toleranceBoost"`
	CenterOnly     bool    `json:"centerOnly,omitempty" yaml:"centerOnly"`
}

// HasSymbol reports whether the mod carries a symbol for symbol matching.
func (m *Mod) HasSymbol() bool {
	return m.Symbol != ""
}
