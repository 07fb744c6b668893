package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/foodgram-backend/models"
)

func setupTestDB(t *testing.T) Database {
	t.Helper()

	db, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return New(db)
}

func createUser(t *testing.T, d Database, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "hash",
	}
	require.NoError(t, d.UserRepo().Add(context.Background(), user))
	return user
}

func createIngredient(t *testing.T, d Database, name, unit string) models.Ingredient {
	t.Helper()
	ingredient := []models.Ingredient{{Name: name, MeasurementUnit: unit}}
	_, err := d.IngredientRepo().AddIgnoringDuplicates(context.Background(), ingredient)
	require.NoError(t, err)
	return ingredient[0]
}

func createTag(t *testing.T, d Database, name, color, slug string) models.Tag {
	t.Helper()
	tag := []models.Tag{{Name: name, Color: color, Slug: slug}}
	_, err := d.TagRepo().AddIgnoringDuplicates(context.Background(), tag)
	require.NoError(t, err)
	return tag[0]
}

type line struct {
	ingredient models.Ingredient
	amount     int
}

func createRecipe(t *testing.T, d Database, author *models.User, name string, createdAt time.Time, tags []models.Tag, lines ...line) *models.Recipe {
	t.Helper()
	ctx := context.Background()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "/media/recipes/x.png",
		Text:        "Cook it.",
		CookingTime: 10,
		CreatedAt:   createdAt,
	}
	err := d.Transaction(ctx, func(tx Database) error {
		if err := tx.RecipeRepo().Add(ctx, recipe); err != nil {
			return err
		}
		if err := tx.RecipeRepo().ReplaceTags(ctx, recipe.ID, tags); err != nil {
			return err
		}
		rows := make([]models.RecipeIngredient, 0, len(lines))
		for _, l := range lines {
			rows = append(rows, models.RecipeIngredient{IngredientID: l.ingredient.ID, Amount: l.amount})
		}
		return tx.RecipeRepo().ReplaceIngredients(ctx, recipe.ID, rows)
	})
	require.NoError(t, err)
	return recipe
}

func TestRecipeRepo_FindByIDLoadsDetails(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	author := createUser(t, d, "chef")
	sugar := createIngredient(t, d, "sugar", "g")
	flour := createIngredient(t, d, "flour", "g")
	lunch := createTag(t, d, "Lunch", "#49B64E", "lunch")
	breakfast := createTag(t, d, "Breakfast", "#E26C2D", "breakfast")

	recipe := createRecipe(t, d, author, "Pancakes", time.Now(), []models.Tag{lunch, breakfast},
		line{sugar, 20}, line{flour, 200})

	got, err := d.RecipeRepo().FindByID(ctx, recipe.ID)
	require.NoError(t, err)

	assert.Equal(t, "chef", got.Author.Username)
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "Breakfast", got.Tags[0].Name)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "sugar", got.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 20, got.Ingredients[0].Amount)
	assert.Equal(t, "flour", got.Ingredients[1].Ingredient.Name)
}

func TestRecipeRepo_TransactionRollsBack(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	author := createUser(t, d, "chef")
	salt := createIngredient(t, d, "salt", "g")

	err := d.Transaction(ctx, func(tx Database) error {
		recipe := &models.Recipe{AuthorID: author.ID, Name: "Broken", Image: "x", Text: "x", CookingTime: 1}
		if err := tx.RecipeRepo().Add(ctx, recipe); err != nil {
			return err
		}
		return tx.RecipeRepo().ReplaceIngredients(ctx, recipe.ID, []models.RecipeIngredient{
			{IngredientID: salt.ID, Amount: 1},
			{IngredientID: salt.ID, Amount: 2},
		})
	})
	require.Error(t, err)

	exists, err := d.RecipeRepo().ExistsByName(ctx, "Broken", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecipeRepo_DeleteCascades(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	author := createUser(t, d, "chef")
	fan := createUser(t, d, "fan")
	egg := createIngredient(t, d, "egg", "pcs")
	tag := createTag(t, d, "Dinner", "#8775D2", "dinner")
	recipe := createRecipe(t, d, author, "Omelette", time.Now(), []models.Tag{tag}, line{egg, 3})

	require.NoError(t, d.FavoriteRepo().Add(ctx, &models.Favorite{UserID: fan.ID, RecipeID: recipe.ID}))
	require.NoError(t, d.CartRepo().Add(ctx, &models.ShoppingCartItem{UserID: fan.ID, RecipeID: recipe.ID}))

	require.NoError(t, d.RecipeRepo().Delete(ctx, recipe.ID))

	var lines, links, favorites, carts int64
	require.NoError(t, d.db.Model(&models.RecipeIngredient{}).Count(&lines).Error)
	require.NoError(t, d.db.Table("recipe_tags").Count(&links).Error)
	require.NoError(t, d.db.Model(&models.Favorite{}).Count(&favorites).Error)
	require.NoError(t, d.db.Model(&models.ShoppingCartItem{}).Count(&carts).Error)
	assert.Zero(t, lines)
	assert.Zero(t, links)
	assert.Zero(t, favorites)
	assert.Zero(t, carts)

	_, err := d.IngredientRepo().FindByID(ctx, egg.ID)
	assert.NoError(t, err)
	_, err = d.TagRepo().FindByID(ctx, tag.ID)
	assert.NoError(t, err)

	assert.Error(t, d.RecipeRepo().Delete(ctx, recipe.ID))
}

func TestRecipeRepo_ListFilters(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	alice := createUser(t, d, "alice")
	bob := createUser(t, d, "bob")
	lunch := createTag(t, d, "Lunch", "#49B64E", "lunch")
	dinner := createTag(t, d, "Dinner", "#8775D2", "dinner")
	rice := createIngredient(t, d, "rice", "g")

	base := time.Now().Add(-time.Hour)
	first := createRecipe(t, d, alice, "Risotto", base, []models.Tag{dinner}, line{rice, 100})
	second := createRecipe(t, d, alice, "Rice salad", base.Add(time.Minute), []models.Tag{lunch}, line{rice, 50})
	third := createRecipe(t, d, bob, "Paella", base.Add(2*time.Minute), []models.Tag{lunch, dinner}, line{rice, 300})

	all, total, err := d.RecipeRepo().List(ctx, RecipeFilter{}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, recipeIDs(all))

	byAuthor, total, err := d.RecipeRepo().List(ctx, RecipeFilter{AuthorID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uuid.UUID{second.ID, first.ID}, recipeIDs(byAuthor))

	byTag, total, err := d.RecipeRepo().List(ctx, RecipeFilter{TagSlugs: []string{"lunch"}}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID}, recipeIDs(byTag))

	require.NoError(t, d.FavoriteRepo().Add(ctx, &models.Favorite{UserID: bob.ID, RecipeID: first.ID}))
	favs, total, err := d.RecipeRepo().List(ctx, RecipeFilter{FavoritedBy: bob.ID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []uuid.UUID{first.ID}, recipeIDs(favs))

	page, total, err := d.RecipeRepo().List(ctx, RecipeFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uuid.UUID{first.ID}, recipeIDs(page))
}

func TestCartRepo_ShoppingListSumsByIngredient(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	author := createUser(t, d, "chef")
	shopper := createUser(t, d, "shopper")
	flour := createIngredient(t, d, "flour", "g")
	milk := createIngredient(t, d, "milk", "ml")
	tag := createTag(t, d, "Baking", "#FFAA00", "baking")

	bread := createRecipe(t, d, author, "Bread", time.Now(), []models.Tag{tag}, line{flour, 200})
	cake := createRecipe(t, d, author, "Cake", time.Now(), []models.Tag{tag}, line{flour, 300}, line{milk, 100})
	createRecipe(t, d, author, "Not in cart", time.Now(), []models.Tag{tag}, line{flour, 1000})

	require.NoError(t, d.CartRepo().Add(ctx, &models.ShoppingCartItem{UserID: shopper.ID, RecipeID: bread.ID}))
	require.NoError(t, d.CartRepo().Add(ctx, &models.ShoppingCartItem{UserID: shopper.ID, RecipeID: cake.ID}))

	totals, err := d.CartRepo().ShoppingList(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Equal(t, []IngredientTotal{
		{Name: "flour", MeasurementUnit: "g", Amount: 500},
		{Name: "milk", MeasurementUnit: "ml", Amount: 100},
	}, totals)

	empty, err := d.CartRepo().ShoppingList(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEngagementRepos_PairUniqueness(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	author := createUser(t, d, "chef")
	fan := createUser(t, d, "fan")
	tag := createTag(t, d, "Soup", "#123456", "soup")
	water := createIngredient(t, d, "water", "ml")
	recipe := createRecipe(t, d, author, "Broth", time.Now(), []models.Tag{tag}, line{water, 500})

	require.NoError(t, d.FavoriteRepo().Add(ctx, &models.Favorite{UserID: fan.ID, RecipeID: recipe.ID}))
	assert.Error(t, d.FavoriteRepo().Add(ctx, &models.Favorite{UserID: fan.ID, RecipeID: recipe.ID}))

	flags, err := d.FavoriteRepo().RecipeIDsAmong(ctx, fan.ID, []uuid.UUID{recipe.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]bool{recipe.ID: true}, flags)

	removed, err := d.FavoriteRepo().Delete(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = d.FavoriteRepo().Delete(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSubscriptionRepo_AuthorsOf(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	reader := createUser(t, d, "reader")
	a := createUser(t, d, "author_a")
	b := createUser(t, d, "author_b")

	require.NoError(t, d.SubscriptionRepo().Add(ctx, &models.Subscription{UserID: reader.ID, AuthorID: a.ID, CreatedAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, d.SubscriptionRepo().Add(ctx, &models.Subscription{UserID: reader.ID, AuthorID: b.ID, CreatedAt: time.Now()}))

	authors, total, err := d.SubscriptionRepo().AuthorsOf(ctx, reader.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, authors, 2)
	assert.Equal(t, "author_b", authors[0].Username)

	flags, err := d.SubscriptionRepo().SubscribedAmong(ctx, reader.ID, []uuid.UUID{a.ID, reader.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]bool{a.ID: true}, flags)
}

func TestIngredientRepo_PrefixSearchAndDuplicates(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	added, err := d.IngredientRepo().AddIgnoringDuplicates(ctx, []models.Ingredient{
		{Name: "Butter", MeasurementUnit: "g"},
		{Name: "buttermilk", MeasurementUnit: "ml"},
		{Name: "peanut butter", MeasurementUnit: "g"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, added)

	added, err = d.IngredientRepo().AddIgnoringDuplicates(ctx, []models.Ingredient{
		{Name: "Butter", MeasurementUnit: "g"},
		{Name: "Butter", MeasurementUnit: "kg"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, added)

	found, err := d.IngredientRepo().FindAll(ctx, "BUTTER")
	require.NoError(t, err)
	names := make([]string, 0, len(found))
	for _, i := range found {
		names = append(names, i.Name+"/"+i.MeasurementUnit)
	}
	assert.Equal(t, []string{"Butter/g", "Butter/kg", "buttermilk/ml"}, names)

	_, err = d.IngredientRepo().AddIgnoringDuplicates(ctx, []models.Ingredient{
		{Name: "Яблоко", MeasurementUnit: "г"},
		{Name: "apple", MeasurementUnit: "g"},
	})
	require.NoError(t, err)

	found, err = d.IngredientRepo().FindAll(ctx, "Ябл")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Яблоко", found[0].Name)

	found, err = d.IngredientRepo().FindAll(ctx, "APP")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "apple", found[0].Name)
}

func TestUserRepo_TokenVersion(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	user := createUser(t, d, "cook")
	require.NoError(t, d.UserRepo().BumpTokenVersion(ctx, user.ID))
	require.NoError(t, d.UserRepo().UpdatePassword(ctx, user.ID, "new-hash"))

	got, err := d.UserRepo().FindByEmail(ctx, "COOK@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TokenVersion)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

func recipeIDs(recipes []models.Recipe) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	return ids
}
