package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/services"
)

type recipeHandler struct {
	responder            Responder
	logger               zerolog.Logger
	paginator            paginator
	shoppingListFilename string
	recipes              *services.RecipeService
	engagement           *services.EngagementService
	shoppingLists        *services.ShoppingListService
}

func newRecipeHandler(
	recipes *services.RecipeService,
	engagement *services.EngagementService,
	shoppingLists *services.ShoppingListService,
	p paginator,
	shoppingListFilename string,
) recipeHandler {
	logger := log.With().Str("handlerName", "recipeHandler").Logger()

	return recipeHandler{
		responder:            NewResponder(logger),
		logger:               logger,
		paginator:            p,
		shoppingListFilename: shoppingListFilename,
		recipes:              recipes,
		engagement:           engagement,
		shoppingLists:        shoppingLists,
	}
}

// recipeFilter reads the author, tags, is_favorited and is_in_shopping_cart filters.
func recipeFilter(r *http.Request) (services.RecipeFilter, error) {
	q := r.URL.Query()
	var f services.RecipeFilter

	if raw := q.Get("author"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, errs.NewInvalidQueryParamError("author", "must be a uuid")
		}
		f.AuthorID = id
	}
	for _, slug := range q["tags"] {
		if slug != "" {
			f.TagSlugs = append(f.TagSlugs, slug)
		}
	}
	f.FavoritedOnly = q.Get("is_favorited") == "1"
	f.InCartOnly = q.Get("is_in_shopping_cart") == "1"
	return f, nil
}

// listRecipes pages through recipes, newest first
// @Summary List recipes
// @Tags Recipes
// @Produce json
// @Param author query string false "Author ID" format(uuid)
// @Param tags query []string false "Tag slugs, any match"
// @Param is_favorited query int false "1 to list the caller's favorites"
// @Param is_in_shopping_cart query int false "1 to list the caller's cart"
// @Success 200 {object} Page[RecipeResponse]
// @Router /recipes [get]
func (h recipeHandler) listRecipes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.paginator.parse(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		filter, err := recipeFilter(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		views, total, err := h.recipes.List(r.Context(), viewerID(r.Context()), filter, page)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		results := make([]RecipeResponse, 0, len(views))
		for _, v := range views {
			results = append(results, newRecipeResponse(v))
		}
		h.responder.WriteJSON(w, pageOf(r, page, total, results))
	}
}

// getRecipe
// @Summary Get recipe
// @Tags Recipes
// @Produce json
// @Param recipeID path string true "Recipe ID" format(uuid)
// @Success 200 {object} RecipeResponse
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /recipes/{recipeID} [get]
func (h recipeHandler) getRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "recipeID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		view, err := h.recipes.Get(r.Context(), viewerID(r.Context()), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newRecipeResponse(*view))
	}
}

// createRecipe publishes a recipe authored by the caller
// @Summary Create recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Param recipe body recipeCreateRequest true "Recipe"
// @Success 201 {object} RecipeResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid recipe data"
// @Failure 404 {object} ErrorResponse "Not Found - Unknown tag or ingredient"
// @Router /recipes [post]
func (h recipeHandler) createRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recipeCreateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		view, err := h.recipes.Create(r.Context(), viewerID(r.Context()), req.input())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, newRecipeResponse(*view))
	}
}

// updateRecipe applies a partial update; omitted tags or ingredients are kept
// @Summary Update recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Param recipeID path string true "Recipe ID" format(uuid)
// @Param recipe body recipeUpdateRequest true "Changed fields"
// @Success 200 {object} RecipeResponse
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author"
// @Router /recipes/{recipeID} [patch]
func (h recipeHandler) updateRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "recipeID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req recipeUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		view, err := h.recipes.Update(r.Context(), viewerID(r.Context()), id, req.patch())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newRecipeResponse(*view))
	}
}

// deleteRecipe
// @Summary Delete recipe
// @Tags Recipes
// @Param recipeID path string true "Recipe ID" format(uuid)
// @Success 204
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /recipes/{recipeID} [delete]
func (h recipeHandler) deleteRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "recipeID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.recipes.Delete(r.Context(), viewerID(r.Context()), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

// addFavorite
// @Summary Add to favorites
// @Tags Recipes
// @Produce json
// @Param recipeID path string true "Recipe ID" format(uuid)
// @Success 201 {object} RecipeSummary
// @Failure 400 {object} ErrorResponse "Bad Request - Already in favorites"
// @Router /recipes/{recipeID}/favorite [post]
func (h recipeHandler) addFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "recipeID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		recipe, err := h.engagement.AddFavorite(r.Context(), viewerID(r.Context()), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, newRecipeSummary(*recipe))
	}
}

// removeFavorite
// @Summary Remove from favorites
// @Tags Recipes
// @Param recipeID path string true "Recipe ID" format(uuid)
// @Success 204
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /recipes/{recipeID}/favorite [delete]
func (h recipeHandler) removeFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "recipeID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.engagement.RemoveFavorite(r.Context(), viewerID(r.Context()), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

// addToCart answers 204 with no body when the recipe is already in the cart
// @Summary Add to shopping cart
// @Tags Recipes
// @Produce json
// @Param recipeID path string true "Recipe ID" format(uuid)
// @Success 201 {object} RecipeSummary
// @Success 204
// @Router /recipes/{recipeID}/shopping_cart [post]
func (h recipeHandler) addToCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "recipeID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		recipe, added, err := h.engagement.AddToCart(r.Context(), viewerID(r.Context()), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !added {
			h.responder.WriteNoContent(w)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, newRecipeSummary(*recipe))
	}
}

// removeFromCart
// @Summary Remove from shopping cart
// @Tags Recipes
// @Param recipeID path string true "Recipe ID" format(uuid)
// @Success 204
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /recipes/{recipeID}/shopping_cart [delete]
func (h recipeHandler) removeFromCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "recipeID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.engagement.RemoveFromCart(r.Context(), viewerID(r.Context()), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

// downloadShoppingCart sends the caller's aggregated shopping list
// @Summary Download shopping list
// @Tags Recipes
// @Produce plain
// @Success 200 {string} string "Shopping list"
// @Router /recipes/download_shopping_cart [get]
func (h recipeHandler) downloadShoppingCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFromCtx(r.Context())

		totals, err := h.shoppingLists.Build(r.Context(), user.ID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Debug().Str("userID", user.ID.String()).Int("lines", len(totals)).Msg("shopping list rendered")
		h.responder.WriteAttachment(w, h.shoppingListFilename, services.Render(user.Username, totals))
	}
}
