package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rpupo63/foodgram-backend/services"
)

type stubImageStore struct{}

func (stubImageStore) Save(_ context.Context, img services.Image) (string, error) {
	return "/media/recipes/stub." + img.Ext, nil
}

var testImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("pixels"))

type testAPI struct {
	t       *testing.T
	handler http.Handler
	db      database.Database
	tags    []models.Tag
	flour   models.Ingredient
	milk    models.Ingredient
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	gormDB, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, models.Migrate(gormDB))
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := database.New(gormDB)
	ctx := context.Background()

	tags := []models.Tag{
		{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
		{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
	}
	_, err = db.TagRepo().AddIgnoringDuplicates(ctx, tags)
	require.NoError(t, err)
	ingredients := []models.Ingredient{
		{Name: "flour", MeasurementUnit: "g"},
		{Name: "milk", MeasurementUnit: "ml"},
	}
	_, err = db.IngredientRepo().AddIgnoringDuplicates(ctx, ingredients)
	require.NoError(t, err)

	c := map[string]string{
		"JWT_SECRET":             "test-secret",
		"PAGE_SIZE":              "2",
		"SHOPPING_LIST_FILENAME": "list.txt",
	}
	handler := newRouter(db, withConfig(c), withImageStore(stubImageStore{}), withBcryptCost(bcrypt.MinCost))

	return &testAPI{t: t, handler: handler, db: db, tags: tags, flour: ingredients[0], milk: ingredients[1]}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// signUp registers username and returns its token and id.
func (a *testAPI) signUp(username string) (string, string) {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/users", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "correct-horse",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CreatedUserResponse](a.t, rec)

	rec = a.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "correct-horse",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[TokenResponse](a.t, rec).AuthToken, created.ID.String()
}

func (a *testAPI) recipeBody(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 20,
		"image":        testImage,
		"tags":         []string{a.tags[0].ID.String()},
		"ingredients": []map[string]any{
			{"id": a.flour.ID.String(), "amount": 200},
			{"id": a.milk.ID.String(), "amount": 100},
		},
	}
}

func (a *testAPI) createRecipe(token, name string) RecipeResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/recipes", token, a.recipeBody(name))
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[RecipeResponse](a.t, rec)
}

func TestAuthFlow(t *testing.T) {
	a := setupTestAPI(t)
	token, id := a.signUp("chef")

	rec := a.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[UserResponse](t, rec)
	assert.Equal(t, id, me.ID.String())
	assert.Equal(t, "chef", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/api/users", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{"email": "chef@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "non_field_errors", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodPost, "/api/users/set_password", token, map[string]string{
		"current_password": "correct-horse",
		"new_password":     "battery-staple",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// the password change revoked the old token
	rec = a.do(http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{"email": "chef@example.com", "password": "battery-staple"})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decode[TokenResponse](t, rec).AuthToken

	rec = a.do(http.MethodPost, "/api/auth/token/logout", fresh, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(http.MethodGet, "/api/users/me", fresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	a := setupTestAPI(t)
	a.signUp("chef")

	rec := a.do(http.MethodPost, "/api/users", "", map[string]string{
		"email": "x@example.com", "username": "subscriptions", "first_name": "A", "last_name": "B", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodPost, "/api/users", "", map[string]string{
		"email": "chef@example.com", "username": "other", "first_name": "A", "last_name": "B", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodPost, "/api/users", "", map[string]any{"email": 12})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "json", decode[ErrorResponse](t, rec).Field)
}

func TestRecipeLifecycle(t *testing.T) {
	a := setupTestAPI(t)
	author, _ := a.signUp("chef")
	other, _ := a.signUp("critic")

	created := a.createRecipe(author, "Pancakes")
	assert.Equal(t, "Pancakes", created.Name)
	assert.Equal(t, "chef", created.Author.Username)
	require.Len(t, created.Ingredients, 2)
	assert.Equal(t, "flour", created.Ingredients[0].Name)
	assert.Equal(t, 200, created.Ingredients[0].Amount)
	require.Len(t, created.Tags, 1)
	assert.Equal(t, "breakfast", created.Tags[0].Slug)

	path := "/api/recipes/" + created.ID.String()

	rec := a.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[RecipeResponse](t, rec).IsFavorited)

	rec = a.do(http.MethodPatch, path, other, map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPatch, path, "", map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPatch, path, author, map[string]any{"cooking_time": 45})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[RecipeResponse](t, rec)
	assert.Equal(t, 45, updated.CookingTime)
	assert.Len(t, updated.Ingredients, 2)
	assert.Len(t, updated.Tags, 1)

	rec = a.do(http.MethodPatch, path, author, map[string]any{"tags": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "tags", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodDelete, path, author, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/api/recipes/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRecipeValidation(t *testing.T) {
	a := setupTestAPI(t)
	author, _ := a.signUp("chef")

	body := a.recipeBody("Empty")
	body["ingredients"] = []map[string]any{}
	rec := a.do(http.MethodPost, "/api/recipes", author, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ingredients", decode[ErrorResponse](t, rec).Field)

	body = a.recipeBody("Twice")
	body["ingredients"] = []map[string]any{
		{"id": a.flour.ID.String(), "amount": 1},
		{"id": a.flour.ID.String(), "amount": 2},
	}
	rec = a.do(http.MethodPost, "/api/recipes", author, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, "/api/recipes", "", a.recipeBody("Anonymous"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecipeListAndFilters(t *testing.T) {
	a := setupTestAPI(t)
	author, authorID := a.signUp("chef")
	fan, _ := a.signUp("fan")

	first := a.createRecipe(author, "First")
	a.createRecipe(author, "Second")
	a.createRecipe(author, "Third")

	rec := a.do(http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[Page[RecipeResponse]](t, rec)
	assert.EqualValues(t, 3, page.Count)
	assert.Len(t, page.Results, 2)
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://example.com/api/recipes?page=2", *page.Next)
	assert.Nil(t, page.Previous)

	rec = a.do(http.MethodGet, *page.Next, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[Page[RecipeResponse]](t, rec)
	assert.Len(t, page.Results, 1)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)

	rec = a.do(http.MethodPost, "/api/recipes/"+first.ID.String()+"/favorite", fan, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "First", decode[RecipeSummary](t, rec).Name)

	rec = a.do(http.MethodGet, "/api/recipes?is_favorited=1", fan, nil)
	page = decode[Page[RecipeResponse]](t, rec)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Results[0].IsFavorited)

	rec = a.do(http.MethodGet, "/api/recipes?author="+authorID+"&tags=dinner", "", nil)
	assert.EqualValues(t, 0, decode[Page[RecipeResponse]](t, rec).Count)

	rec = a.do(http.MethodGet, "/api/recipes?author=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/recipes?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, huge := range []string{"9223372036854775807", "4611686018427387904", "1073741825"} {
		rec = a.do(http.MethodGet, "/api/recipes?page="+huge, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, huge)
	}

	rec = a.do(http.MethodGet, "/api/recipes?page=50", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[Page[RecipeResponse]](t, rec)
	assert.Empty(t, page.Results)
	assert.Nil(t, page.Next)
}

func TestFavoritesAndShoppingCart(t *testing.T) {
	a := setupTestAPI(t)
	author, _ := a.signUp("chef")
	shopper, _ := a.signUp("shopper")

	r1 := a.createRecipe(author, "Bread")
	r2 := a.createRecipe(author, "Cake")

	favorite := "/api/recipes/" + r1.ID.String() + "/favorite"
	assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, favorite, shopper, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, favorite, shopper, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, favorite, shopper, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, favorite, shopper, nil).Code)

	for _, r := range []RecipeResponse{r1, r2} {
		rec := a.do(http.MethodPost, "/api/recipes/"+r.ID.String()+"/shopping_cart", shopper, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := a.do(http.MethodPost, "/api/recipes/"+r1.ID.String()+"/shopping_cart", shopper, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/recipes/download_shopping_cart", shopper, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=list.txt", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Shopping list for shopper:\nflour - 400 g.\nmilk - 200 ml.\n", rec.Body.String())

	rec = a.do(http.MethodGet, "/api/recipes/download_shopping_cart", author, nil)
	assert.Equal(t, "Shopping list for chef:\n", rec.Body.String())

	rec = a.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubscriptions(t *testing.T) {
	a := setupTestAPI(t)
	author, authorID := a.signUp("chef")
	reader, readerID := a.signUp("reader")

	a.createRecipe(author, "One")
	a.createRecipe(author, "Two")

	subscribe := "/api/users/" + authorID + "/subscribe"

	rec := a.do(http.MethodPost, subscribe+"?recipes_limit=abc", reader, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPost, subscribe+"?recipes_limit=1", reader, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decode[AuthorCardResponse](t, rec)
	assert.True(t, card.IsSubscribed)
	assert.Len(t, card.Recipes, 1)
	assert.EqualValues(t, 2, card.RecipesCount)
	assert.Equal(t, "Two", card.Recipes[0].Name)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, subscribe, reader, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/users/"+readerID+"/subscribe", reader, nil).Code)

	rec = a.do(http.MethodGet, "/api/users/"+authorID, reader, nil)
	assert.True(t, decode[UserResponse](t, rec).IsSubscribed)
	rec = a.do(http.MethodGet, "/api/users/"+authorID, "", nil)
	assert.False(t, decode[UserResponse](t, rec).IsSubscribed)

	rec = a.do(http.MethodGet, "/api/users/subscriptions", reader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[Page[AuthorCardResponse]](t, rec)
	assert.EqualValues(t, 1, page.Count)
	assert.Len(t, page.Results[0].Recipes, 2)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, subscribe, reader, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, subscribe, reader, nil).Code)
}

func TestCatalog(t *testing.T) {
	a := setupTestAPI(t)

	rec := a.do(http.MethodGet, "/api/tags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]TagResponse](t, rec), 2)

	rec = a.do(http.MethodGet, "/api/tags/"+a.tags[1].ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dinner", decode[TagResponse](t, rec).Slug)

	rec = a.do(http.MethodGet, "/api/ingredients?name=FL", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]IngredientResponse](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "flour", found[0].Name)

	rec = a.do(http.MethodGet, "/api/ingredients/"+a.milk.ID.String(), "", nil)
	assert.Equal(t, "ml", decode[IngredientResponse](t, rec).MeasurementUnit)

	rec = a.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"status":"ok"`))
}
