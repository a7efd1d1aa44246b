package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dom/wedge-builds/internal/api/handlers"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamHandler_Evaluate(t *testing.T) {
	h := staticRouter(t)

	t.Run("reports per-member tolerance", func(t *testing.T) {
		body, _ := json.Marshal(service.EvaluateTeamInput{
			PrimeMod: "Crown of Cinders",
			Members: []service.MemberInput{{
				CharacterID: "lynn",
				Mods: []service.ModChoice{
					{Name: "Blazing Fury"},
					{Name: "Flame Ward", Adjusted: true},
				},
			}},
		})

		rec := serve(h, http.MethodPost, "/teams/evaluate", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got service.TeamEvaluation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Crown", got.PrimeSymbol)
		require.Len(t, got.Members, 1)
		assert.Equal(t, []int{4, 3}, got.Members[0].Costs)
		assert.Equal(t, 7, got.Members[0].Summary.Used)
		assert.Equal(t, 2, got.Members[0].Summary.Remaining)
		assert.False(t, got.Members[0].Summary.Over)
	})

	t.Run("invalid member names the field", func(t *testing.T) {
		body := []byte(`{"members":[{"characterId":"ghost"}]}`)

		rec := serve(h, http.MethodPost, "/teams/evaluate", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var got handlers.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Contains(t, got.Fields, "members[0].characterId")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/teams/evaluate", []byte(`{"members":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
