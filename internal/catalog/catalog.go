// Package catalog holds the static game data: characters, weapons and
// mods. It is loaded once at startup and never mutated.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/dom/wedge-builds/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

const (
	charactersFile = "data/characters.yaml"
	weaponsFile    = "data/weapons.yaml"
	modsFile       = "data/mods.yaml"
)

// Catalog is an immutable view over the game data tables.
type Catalog struct {
	characters []domain.Character
	weapons    []domain.Weapon
	mods       []domain.Mod

	characterByID map[string]int
	weaponByID    map[string]int
	modByName     map[string]int
}

// Load reads the catalog embedded in the binary.
func Load() (*Catalog, error) {
	return LoadFS(dataFS)
}

// LoadFS reads the three catalog tables from fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var characters []domain.Character
	if err := decodeFile(fsys, charactersFile, &characters); err != nil {
		return nil, err
	}
	var weapons []domain.Weapon
	if err := decodeFile(fsys, weaponsFile, &weapons); err != nil {
		return nil, err
	}
	var mods []domain.Mod
	if err := decodeFile(fsys, modsFile, &mods); err != nil {
		return nil, err
	}
	return New(characters, weapons, mods)
}

func decodeFile(fsys fs.FS, name string, dest any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// New builds a catalog from already decoded tables, checking the
// invariants every table must hold.
func New(characters []domain.Character, weapons []domain.Weapon, mods []domain.Mod) (*Catalog, error) {
	c := &Catalog{
		characters:    characters,
		weapons:       weapons,
		mods:          mods,
		characterByID: make(map[string]int, len(characters)),
		weaponByID:    make(map[string]int, len(weapons)),
		modByName:     make(map[string]int, len(mods)),
	}

	for i, ch := range characters {
		if ch.ID == "" {
			return nil, fmt.Errorf("character %d: missing id", i)
		}
		if _, dup := c.characterByID[ch.ID]; dup {
			return nil, fmt.Errorf("character %q: duplicate id", ch.ID)
		}
		if !ch.Element.IsValid() {
			return nil, fmt.Errorf("character %q: unknown element %q", ch.ID, ch.Element)
		}
		c.characterByID[ch.ID] = i
	}

	for i, w := range weapons {
		if w.ID == "" {
			return nil, fmt.Errorf("weapon %d: missing id", i)
		}
		if _, dup := c.weaponByID[w.ID]; dup {
			return nil, fmt.Errorf("weapon %q: duplicate id", w.ID)
		}
		c.weaponByID[w.ID] = i
	}

	for i, m := range mods {
		if err := checkMod(&m); err != nil {
			return nil, err
		}
		if _, dup := c.modByName[m.Name]; dup {
			return nil, fmt.Errorf("mod %q: duplicate name", m.Name)
		}
		c.modByName[m.Name] = i
	}

	return c, nil
}

func checkMod(m *domain.Mod) error {
	switch {
	case m.Name == "":
		return fmt.Errorf("mod: missing name")
	case m.Rarity < 2 || m.Rarity > 5:
		return fmt.Errorf("mod %q: rarity %d out of range 2..5", m.Name, m.Rarity)
	case !m.ModType.IsValid():
		return fmt.Errorf("mod %q: unknown mod type %q", m.Name, m.ModType)
	case m.Element != "" && !m.Element.IsValid():
		return fmt.Errorf("mod %q: unknown element %q", m.Name, m.Element)
	case m.Tolerance < 0:
		return fmt.Errorf("mod %q: negative tolerance", m.Name)
	case m.IsPrimeMod && m.CenterOnly:
		return fmt.Errorf("mod %q: cannot be both prime and center-only", m.Name)
	}
	return nil
}

func (c *Catalog) Characters() []domain.Character {
	out := make([]domain.Character, len(c.characters))
	copy(out, c.characters)
	return out
}

func (c *Catalog) Weapons() []domain.Weapon {
	out := make([]domain.Weapon, len(c.weapons))
	copy(out, c.weapons)
	return out
}

func (c *Catalog) Mods() []domain.Mod {
	out := make([]domain.Mod, len(c.mods))
	copy(out, c.mods)
	return out
}

// Character returns a copy of the character with the given id.
func (c *Catalog) Character(id string) (*domain.Character, bool) {
	i, ok := c.characterByID[id]
	if !ok {
		return nil, false
	}
	ch := c.characters[i]
	return &ch, true
}

func (c *Catalog) Weapon(id string) (*domain.Weapon, bool) {
	i, ok := c.weaponByID[id]
	if !ok {
		return nil, false
	}
	w := c.weapons[i]
	return &w, true
}

func (c *Catalog) Mod(name string) (*domain.Mod, bool) {
	i, ok := c.modByName[name]
	if !ok {
		return nil, false
	}
	m := c.mods[i]
	return &m, true
}

// CharacterElement resolves a character id to its element.
func (c *Catalog) CharacterElement(id string) (domain.Element, bool) {
	ch, ok := c.Character(id)
	if !ok {
		return "", false
	}
	return ch.Element, true
}

// WeaponType resolves a weapon id to its weapon type.
func (c *Catalog) WeaponType(id string) (string, bool) {
	w, ok := c.Weapon(id)
	if !ok {
		return "", false
	}
	return w.Type, true
}

// ModQuery narrows a mod listing. Zero fields match everything.
type ModQuery struct {
	Type       domain.ModType
	Element    domain.Element
	Rarity     int
	PrimeOnly  bool
	CenterOnly bool
}

func (q ModQuery) matches(m *domain.Mod) bool {
	if q.Type != "" && m.ModType != q.Type {
		return false
	}
	if q.Element != "" && m.Element != q.Element {
		return false
	}
	if q.Rarity != 0 && m.Rarity != q.Rarity {
		return false
	}
	if q.PrimeOnly && !m.IsPrimeMod {
		return false
	}
	if q.CenterOnly && !m.CenterOnly {
		return false
	}
	return true
}

// ModsFor returns the mods matching q, highest rarity first, then by name.
func (c *Catalog) ModsFor(q ModQuery) []domain.Mod {
	out := make([]domain.Mod, 0, len(c.mods))
	for i := range c.mods {
		if q.matches(&c.mods[i]) {
			out = append(out, c.mods[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rarity != out[j].Rarity {
			return out[i].Rarity > out[j].Rarity
		}
		return out[i].Name < out[j].Name
	})
	return out
}
