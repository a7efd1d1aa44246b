// Package tolerance computes the tolerance a mod charges against a
// loadout's budget and decides which slots a mod may occupy.
package tolerance

import (
	"fmt"

	"github.com/dom/wedge-builds/internal/domain"
)

// DefaultCapacity is the budget used when a loadout does not state one.
const DefaultCapacity = domain.DefaultSupportCapacity

type SlotKind string

const (
	SlotPrime   SlotKind = "prime"
	SlotCenter  SlotKind = "center"
	SlotRegular SlotKind = "regular"
)

func (k SlotKind) IsValid() bool {
	switch k {
	case SlotPrime, SlotCenter, SlotRegular:
		return true
	}
	return false
}

// Context describes the slot a mod is charged in.
type Context struct {
	IsPrimeSlot bool
	PrimeSymbol string
	IsAdjusted  bool
}

// Effective returns the tolerance mod costs in ctx. Prime and center slots
// charge the full cost. A regular slot halves the cost, rounding down, when
// the mod's symbol matches the prime symbol or the slot is adjusted; the two
// discounts never stack.
func Effective(mod *domain.Mod, ctx Context) int {
	if ctx.IsPrimeSlot {
		return mod.Tolerance
	}
	symbolMatch := mod.HasSymbol() && mod.Symbol == ctx.PrimeSymbol
	if symbolMatch || ctx.IsAdjusted {
		return mod.Tolerance / 2
	}
	return mod.Tolerance
}

// IsEligible reports whether mod may be placed in a slot of the given kind.
func IsEligible(mod *domain.Mod, kind SlotKind) bool {
	switch kind {
	case SlotPrime:
		return mod.IsPrimeMod
	case SlotCenter:
		return mod.CenterOnly && !mod.IsPrimeMod
	case SlotRegular:
		return !mod.IsPrimeMod && !mod.CenterOnly
	}
	return false
}

// Slot is one position of a loadout. A nil Mod is an empty slot.
type Slot struct {
	Kind     SlotKind
	Mod      *domain.Mod
	Adjusted bool
}

// Summary is the tolerance bookkeeping of a loadout.
type Summary struct {
	Used      int  `json:"used"`
	Budget    int  `json:"budget"`
	Remaining int  `json:"remaining"`
	Over      bool `json:"over"`
}

// PrimeSymbol returns the symbol of the mod in the first occupied prime
// slot, or "" when there is none.
func PrimeSymbol(slots []Slot) string {
	for _, s := range slots {
		if s.Kind == SlotPrime && s.Mod != nil {
			return s.Mod.Symbol
		}
	}
	return ""
}

// Evaluate sums the effective tolerance of every occupied non-prime slot
// and compares it against budget. A budget of zero means DefaultCapacity.
// An occupied prime slot extends the budget by its mod's ToleranceBoost.
func Evaluate(slots []Slot, budget int) Summary {
	return EvaluateWithSymbol(slots, budget, PrimeSymbol(slots))
}

// EvaluateWithSymbol is Evaluate with the prime symbol supplied by the
// caller, for loadouts whose prime mod lives elsewhere (support members
// matching the main build's prime).
func EvaluateWithSymbol(slots []Slot, budget int, primeSymbol string) Summary {
	if budget <= 0 {
		budget = DefaultCapacity
	}

	used := 0
	for _, s := range slots {
		if s.Mod == nil {
			continue
		}
		if s.Kind == SlotPrime {
			budget += s.Mod.ToleranceBoost
			continue
		}
		used += Effective(s.Mod, Context{
			IsPrimeSlot: s.Kind == SlotCenter,
			PrimeSymbol: primeSymbol,
			IsAdjusted:  s.Adjusted,
		})
	}

	return Summary{
		Used:      used,
		Budget:    budget,
		Remaining: budget - used,
		Over:      used > budget,
	}
}

// Place puts mod into slots[index]. Ineligible placements are rejected
// before slots is touched.
func Place(slots []Slot, index int, mod *domain.Mod) error {
	if index < 0 || index >= len(slots) {
		return domain.NewValidationError("slot", fmt.Sprintf("index %d out of range", index))
	}
	if mod != nil && !IsEligible(mod, slots[index].Kind) {
		return domain.NewValidationError("slot", fmt.Sprintf("mod %q cannot occupy a %s slot", mod.Name, slots[index].Kind))
	}
	slots[index].Mod = mod
	return nil
}

// MemberSlots lays a support member's mods out as regular slots.
func MemberSlots(m *domain.TeamMember) []Slot {
	slots := make([]Slot, len(m.Mods))
	for i, mod := range m.Mods {
		slots[i] = Slot{Kind: SlotRegular, Mod: mod}
		if i < len(m.Adjusted) {
			slots[i].Adjusted = m.Adjusted[i]
		}
	}
	return slots
}
