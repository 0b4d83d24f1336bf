package api_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platebook/backend/internal/testhelpers"
)

func TestListIngredientsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	testhelpers.CreateIngredient(t, env.db, "Salt", "g")
	testhelpers.CreateIngredient(t, env.db, "salmon", "g")
	testhelpers.CreateIngredient(t, env.db, "pepper", "g")

	w := env.do(t, http.MethodGet, "/api/ingredients", "", nil)
	requireStatus(t, w, http.StatusOK)

	var got []struct {
		ID              uuid.UUID `json:"id"`
		Name            string    `json:"name"`
		MeasurementUnit string    `json:"measurement_unit"`
	}
	decodeJSON(t, w, &got)
	assert.Len(t, got, 3)

	w = env.do(t, http.MethodGet, "/api/ingredients?name=sal", "", nil)
	requireStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &got)
	assert.Len(t, got, 2)
}

func TestGetIngredientEndpoint(t *testing.T) {
	env := newTestEnv(t)
	salt := testhelpers.CreateIngredient(t, env.db, "salt", "g")

	w := env.do(t, http.MethodGet, "/api/ingredients/"+salt.ID.String(), "", nil)
	requireStatus(t, w, http.StatusOK)

	var got struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}
	decodeJSON(t, w, &got)
	require.Equal(t, "salt", got.Name)
	assert.Equal(t, "g", got.MeasurementUnit)

	w = env.do(t, http.MethodGet, "/api/ingredients/"+uuid.NewString(), "", nil)
	requireStatus(t, w, http.StatusNotFound)
}
