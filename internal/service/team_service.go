package service

import (
	"fmt"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/tolerance"
	"github.com/dom/wedge-builds/internal/validation"
)

// TeamService evaluates support loadouts against the tolerance budget.
// It reads only the static catalog, so nothing here blocks.
type TeamService struct {
	catalog validation.Catalog
}

func NewTeamService(catalog validation.Catalog) *TeamService {
	return &TeamService{catalog: catalog}
}

type ModChoice struct {
	Name     string `json:"name"`
	Adjusted bool   `json:"adjusted"`
}

type MemberInput struct {
	CharacterID string      `json:"characterId"`
	WeaponID    string      `json:"weaponId"`
	Mods        []ModChoice `json:"mods"`
}

// EvaluateTeamInput describes a support team. PrimeMod, when set, names
// the build's prime mod and takes precedence over PrimeSymbol.
type EvaluateTeamInput struct {
	PrimeMod    string        `json:"primeMod,omitempty"`
	PrimeSymbol string        `json:"primeSymbol,omitempty"`
	Members     []MemberInput `json:"members"`
}

type MemberEvaluation struct {
	Slot      string            `json:"slot"`
	Character *domain.Character `json:"character,omitempty"`
	Weapon    *domain.Weapon    `json:"weapon,omitempty"`
	Costs     []int             `json:"costs"`
	Summary   tolerance.Summary `json:"summary"`
}

type TeamEvaluation struct {
	PrimeSymbol string             `json:"primeSymbol,omitempty"`
	Members     []MemberEvaluation `json:"members"`
}

// Evaluate resolves every member against the catalog and returns each
// member's tolerance summary. Unknown ids and ineligible mods fail with a
// ValidationError naming the offending field.
func (s *TeamService) Evaluate(in EvaluateTeamInput) (*TeamEvaluation, error) {
	if len(in.Members) > domain.MaxSupportMembers {
		return nil, domain.NewValidationError("members", fmt.Sprintf("must not exceed %d entries", domain.MaxSupportMembers))
	}

	symbol := in.PrimeSymbol
	if in.PrimeMod != "" {
		prime, ok := s.catalog.Mod(in.PrimeMod)
		if !ok {
			return nil, domain.NewValidationError("primeMod", "is not a known mod")
		}
		if !tolerance.IsEligible(prime, tolerance.SlotPrime) {
			return nil, domain.NewValidationError("primeMod", "is not a prime mod")
		}
		symbol = prime.Symbol
	}

	fields := map[string]string{}
	out := &TeamEvaluation{PrimeSymbol: symbol, Members: make([]MemberEvaluation, 0, len(in.Members))}
	for i, m := range in.Members {
		eval, ok := s.evaluateMember(i, m, symbol, fields)
		if ok {
			out.Members = append(out.Members, eval)
		}
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	return out, nil
}

func (s *TeamService) evaluateMember(i int, in MemberInput, symbol string, fields map[string]string) (MemberEvaluation, bool) {
	prefix := fmt.Sprintf("members[%d]", i)
	eval := MemberEvaluation{Slot: domain.SupportSlots[i]}
	member := domain.NewTeamMember(domain.DefaultSupportCapacity)

	if in.CharacterID != "" {
		c, ok := s.catalog.Character(in.CharacterID)
		if !ok {
			fields[prefix+".characterId"] = "is not a known character"
		}
		member.Character = c
		eval.Character = c
	}
	if in.WeaponID != "" {
		w, ok := s.catalog.Weapon(in.WeaponID)
		if !ok {
			fields[prefix+".weaponId"] = "is not a known weapon"
		}
		member.Weapon = w
		eval.Weapon = w
	}
	if len(in.Mods) > member.Capacity() {
		fields[prefix+".mods"] = fmt.Sprintf("must not exceed %d entries", member.Capacity())
		return eval, false
	}

	slots := tolerance.MemberSlots(member)
	for j, choice := range in.Mods {
		field := fmt.Sprintf("%s.mods[%d]", prefix, j)
		mod, ok := s.catalog.Mod(choice.Name)
		if !ok {
			fields[field] = "is not a known mod"
			continue
		}
		if err := tolerance.Place(slots, j, mod); err != nil {
			fields[field] = "must be a regular mod"
			continue
		}
		slots[j].Adjusted = choice.Adjusted
	}

	eval.Costs = make([]int, 0, len(in.Mods))
	for _, slot := range slots {
		if slot.Mod == nil {
			continue
		}
		eval.Costs = append(eval.Costs, tolerance.Effective(slot.Mod, tolerance.Context{
			PrimeSymbol: symbol,
			IsAdjusted:  slot.Adjusted,
		}))
	}
	eval.Summary = tolerance.EvaluateWithSymbol(slots, member.Capacity(), symbol)
	return eval, true
}
