package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platebook/backend/internal/service"
	"github.com/platebook/backend/internal/testhelpers"
)

func TestIngredientList(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ingredients := service.NewIngredientService(db)
	testhelpers.CreateIngredient(t, db, "Salt", "g")
	testhelpers.CreateIngredient(t, db, "salmon", "g")
	testhelpers.CreateIngredient(t, db, "pepper", "g")

	all, err := ingredients.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Prefix match is case-insensitive and anchored at the start.
	got, err := ingredients.List(context.Background(), "sal")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = ingredients.List(context.Background(), "epper")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIngredientGet(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	ingredients := service.NewIngredientService(db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")

	got, err := ingredients.Get(context.Background(), salt.ID)
	require.NoError(t, err)
	assert.Equal(t, "salt", got.Name)

	_, err = ingredients.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
