package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
)

// catalogHandler serves the read-only tag and ingredient lists.
type catalogHandler struct {
	responder      Responder
	logger         zerolog.Logger
	tagRepo        *database.TagRepo
	ingredientRepo *database.IngredientRepo
}

func newCatalogHandler(tagRepo *database.TagRepo, ingredientRepo *database.IngredientRepo) catalogHandler {
	logger := log.With().Str("handlerName", "catalogHandler").Logger()

	return catalogHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		tagRepo:        tagRepo,
		ingredientRepo: ingredientRepo,
	}
}

// listTags returns every tag, unpaginated
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {array} TagResponse
// @Router /tags [get]
func (h catalogHandler) listTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.tagRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "tags", err))
			return
		}

		response := make([]TagResponse, 0, len(tags))
		for _, t := range tags {
			response = append(response, newTagResponse(t))
		}
		h.responder.WriteJSON(w, response)
	}
}

// getTag
// @Summary Get tag
// @Tags Tags
// @Produce json
// @Param tagID path string true "Tag ID" format(uuid)
// @Success 200 {object} TagResponse
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /tags/{tagID} [get]
func (h catalogHandler) getTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "tagID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		tag, err := h.tagRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("get", "tag", err))
			return
		}
		h.responder.WriteJSON(w, newTagResponse(*tag))
	}
}

// listIngredients returns ingredients whose name starts with ?name=
// @Summary Search ingredients
// @Tags Ingredients
// @Produce json
// @Param name query string false "Case-insensitive name prefix"
// @Success 200 {array} IngredientResponse
// @Router /ingredients [get]
func (h catalogHandler) listIngredients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredients, err := h.ingredientRepo.FindAll(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "ingredients", err))
			return
		}

		response := make([]IngredientResponse, 0, len(ingredients))
		for _, i := range ingredients {
			response = append(response, newIngredientResponse(i))
		}
		h.responder.WriteJSON(w, response)
	}
}

// getIngredient
// @Summary Get ingredient
// @Tags Ingredients
// @Produce json
// @Param ingredientID path string true "Ingredient ID" format(uuid)
// @Success 200 {object} IngredientResponse
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /ingredients/{ingredientID} [get]
func (h catalogHandler) getIngredient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "ingredientID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ingredient, err := h.ingredientRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("get", "ingredient", err))
			return
		}
		h.responder.WriteJSON(w, newIngredientResponse(*ingredient))
	}
}
