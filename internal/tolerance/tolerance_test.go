package tolerance_test

import (
	"errors"
	"testing"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/tolerance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mod(name string, cost int, symbol string) *domain.Mod {
	return &domain.Mod{Name: name, Rarity: 4, ModType: domain.ModTypeCharacters, Tolerance: cost, Symbol: symbol}
}

func TestEffective(t *testing.T) {
	tests := []struct {
		name string
		mod  *domain.Mod
		ctx  tolerance.Context
		want int
	}{
		{name: "regular slot no discount", mod: mod("a", 8, "Crown"), ctx: tolerance.Context{PrimeSymbol: "Wave"}, want: 8},
		{name: "symbol match halves", mod: mod("a", 8, "Crown"), ctx: tolerance.Context{PrimeSymbol: "Crown"}, want: 4},
		{name: "adjusted halves", mod: mod("a", 8, ""), ctx: tolerance.Context{IsAdjusted: true}, want: 4},
		{name: "odd cost rounds down", mod: mod("a", 7, "Crown"), ctx: tolerance.Context{PrimeSymbol: "Crown"}, want: 3},
		{name: "zero cost", mod: mod("a", 0, ""), ctx: tolerance.Context{IsAdjusted: true}, want: 0},
		{name: "empty symbol never matches empty prime", mod: mod("a", 6, ""), ctx: tolerance.Context{}, want: 6},
		{name: "prime slot ignores match", mod: mod("a", 9, "Crown"), ctx: tolerance.Context{IsPrimeSlot: true, PrimeSymbol: "Crown"}, want: 9},
		{name: "prime slot ignores adjust", mod: mod("a", 9, ""), ctx: tolerance.Context{IsPrimeSlot: true, IsAdjusted: true}, want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tolerance.Effective(tt.mod, tt.ctx))
		})
	}
}

func TestEffective_DiscountsDoNotStack(t *testing.T) {
	for cost := 0; cost <= 20; cost++ {
		m := mod("m", cost, "Crown")

		adjusted := tolerance.Effective(m, tolerance.Context{IsAdjusted: true})
		matched := tolerance.Effective(m, tolerance.Context{PrimeSymbol: m.Symbol})
		both := tolerance.Effective(m, tolerance.Context{IsAdjusted: true, PrimeSymbol: m.Symbol})

		assert.Equal(t, cost/2, adjusted, "cost %d", cost)
		assert.Equal(t, adjusted, matched, "cost %d", cost)
		assert.Equal(t, adjusted, both, "cost %d", cost)
	}
}

func TestEffective_PrimeSlotNeverDiscounts(t *testing.T) {
	contexts := []tolerance.Context{
		{IsPrimeSlot: true},
		{IsPrimeSlot: true, IsAdjusted: true},
		{IsPrimeSlot: true, PrimeSymbol: "Crown"},
		{IsPrimeSlot: true, PrimeSymbol: "Crown", IsAdjusted: true},
	}
	for cost := 0; cost <= 20; cost++ {
		m := mod("m", cost, "Crown")
		for _, ctx := range contexts {
			assert.Equal(t, cost, tolerance.Effective(m, ctx))
		}
	}
}

func TestIsEligible(t *testing.T) {
	prime := &domain.Mod{Name: "p", IsPrimeMod: true}
	center := &domain.Mod{Name: "c", CenterOnly: true}
	regular := &domain.Mod{Name: "r"}

	tests := []struct {
		mod  *domain.Mod
		kind tolerance.SlotKind
		want bool
	}{
		{prime, tolerance.SlotPrime, true},
		{prime, tolerance.SlotCenter, false},
		{prime, tolerance.SlotRegular, false},
		{center, tolerance.SlotPrime, false},
		{center, tolerance.SlotCenter, true},
		{center, tolerance.SlotRegular, false},
		{regular, tolerance.SlotPrime, false},
		{regular, tolerance.SlotCenter, false},
		{regular, tolerance.SlotRegular, true},
		{regular, tolerance.SlotKind("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.mod.Name+"/"+string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tolerance.IsEligible(tt.mod, tt.kind))
		})
	}
}

func TestEvaluate(t *testing.T) {
	prime := &domain.Mod{Name: "Crown of Cinders", Symbol: "Crown", IsPrimeMod: true, ToleranceBoost: 12}
	center := &domain.Mod{Name: "Heart", Tolerance: 10, CenterOnly: true}

	slots := []tolerance.Slot{
		{Kind: tolerance.SlotPrime, Mod: prime},
		{Kind: tolerance.SlotCenter, Mod: center},
		{Kind: tolerance.SlotRegular, Mod: mod("Blazing Fury", 9, "Crown")},       // 4
		{Kind: tolerance.SlotRegular, Mod: mod("Flame Ward", 7, "Shield")},        // 7
		{Kind: tolerance.SlotRegular, Mod: mod("Resolve", 5, ""), Adjusted: true}, // 2
		{Kind: tolerance.SlotRegular},
	}

	got := tolerance.Evaluate(slots, 0)
	assert.Equal(t, 10+4+7+2, got.Used)
	assert.Equal(t, tolerance.DefaultCapacity+12, got.Budget)
	assert.Equal(t, got.Budget-got.Used, got.Remaining)
	assert.True(t, got.Over)
}

func TestEvaluate_EmptyLoadout(t *testing.T) {
	got := tolerance.Evaluate(make([]tolerance.Slot, 4), 15)
	assert.Equal(t, tolerance.Summary{Used: 0, Budget: 15, Remaining: 15}, got)
}

func TestPlace_RejectsWithoutMutation(t *testing.T) {
	slots := []tolerance.Slot{
		{Kind: tolerance.SlotPrime},
		{Kind: tolerance.SlotRegular},
	}

	err := tolerance.Place(slots, 0, mod("regular", 3, ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Nil(t, slots[0].Mod)

	err = tolerance.Place(slots, 5, mod("regular", 3, ""))
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, tolerance.Place(slots, 1, mod("regular", 3, "")))
	assert.Equal(t, "regular", slots[1].Mod.Name)

	require.NoError(t, tolerance.Place(slots, 1, nil))
	assert.Nil(t, slots[1].Mod)
}

func TestMemberSlots(t *testing.T) {
	member := domain.NewTeamMember(0)
	require.Equal(t, tolerance.DefaultCapacity, member.Capacity())

	member.Mods[0] = mod("a", 6, "Crown")
	member.Mods[3] = mod("b", 4, "")
	member.Adjusted[3] = true

	slots := tolerance.MemberSlots(member)
	require.Len(t, slots, tolerance.DefaultCapacity)

	got := tolerance.EvaluateWithSymbol(slots, 0, "Crown")
	assert.Equal(t, 3+2, got.Used)
	assert.False(t, got.Over)
}
