package service

import (
	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/domain"
)

// CatalogService exposes the static game catalog to handlers.
type CatalogService struct {
	catalog *catalog.Catalog
}

func NewCatalogService(c *catalog.Catalog) *CatalogService {
	return &CatalogService{catalog: c}
}

func (s *CatalogService) Characters() []domain.Character {
	return s.catalog.Characters()
}

func (s *CatalogService) Weapons() []domain.Weapon {
	return s.catalog.Weapons()
}

// Mods lists the mods matching q, highest rarity first.
func (s *CatalogService) Mods(q catalog.ModQuery) []domain.Mod {
	return s.catalog.ModsFor(q)
}

func (s *CatalogService) Character(id string) (*domain.Character, bool) {
	return s.catalog.Character(id)
}

func (s *CatalogService) Weapon(id string) (*domain.Weapon, bool) {
	return s.catalog.Weapon(id)
}

func (s *CatalogService) Mod(name string) (*domain.Mod, bool) {
	return s.catalog.Mod(name)
}
