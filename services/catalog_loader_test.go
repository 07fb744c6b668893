package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLoader_Ingredients(t *testing.T) {
	db := setupTestDB(t)
	loader := NewCatalogLoader(db)
	ctx := context.Background()

	csv := "flour,g\n milk , ml\n\n\"salt, sea\",g\n"
	added, err := loader.LoadIngredients(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.EqualValues(t, 3, added)

	// a second run only adds what is new
	added, err = loader.LoadIngredients(ctx, strings.NewReader("flour,g\nflour,kg\n"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, added)

	found, err := db.IngredientRepo().FindAll(ctx, "sa")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "salt, sea", found[0].Name)

	_, err = loader.LoadIngredients(ctx, strings.NewReader("flour,g\nsugar\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCatalogLoader_Tags(t *testing.T) {
	db := setupTestDB(t)
	loader := NewCatalogLoader(db)
	ctx := context.Background()

	added, err := loader.LoadTags(ctx, strings.NewReader("Breakfast,#E26C2D,breakfast\nDinner,#8775D2,dinner\n"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, added)

	tags, err := db.TagRepo().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	_, err = loader.LoadTags(ctx, strings.NewReader("Lunch,green,lunch\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#RRGGBB")

	_, err = loader.LoadTags(ctx, strings.NewReader("Lunch,#49B64E,lunch time\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slug")
}
