package domain

// TeamMember is one support loadout while a team is being planned. It is
// not persisted on its own; builds store it as ids in Team,
// SupportWeapons and SupportMods.
type TeamMember struct {
	Character *Character `json:"character"`
	Weapon    *Weapon    `json:"weapon"`
	Mods      []*Mod     `json:"mods"`
	Adjusted  []bool     `json:"adjusted"`
}

// NewTeamMember returns an empty member with capacity mod slots.
func NewTeamMember(capacity int) *TeamMember {
	if capacity <= 0 {
		capacity = DefaultSupportCapacity
	}
	return &TeamMember{
		Mods:     make([]*Mod, capacity),
		Adjusted: make([]bool, capacity),
	}
}

// Capacity returns the fixed number of mod slots.
func (m *TeamMember) Capacity() int {
	return len(m.Mods)
}

// ModNames returns the names of the occupied slots in slot order.
func (m *TeamMember) ModNames() []string {
	names := make([]string, 0, len(m.Mods))
	for _, mod := range m.Mods {
		if mod != nil {
			names = append(names, mod.Name)
		}
	}
	return names
}
