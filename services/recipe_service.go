package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
)

// IngredientAmount is one requested line of a recipe.
type IngredientAmount struct {
	IngredientID uuid.UUID
	Amount       int
}

// RecipeInput carries every field of a new recipe. Image is a base64 data URI.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

// RecipePatch updates a recipe. Nil fields are left unchanged, including
// the tag set and the ingredient lines.
type RecipePatch struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string
	TagIDs      *[]uuid.UUID
	Ingredients *[]IngredientAmount
}

// RecipeFilter narrows a listing. The favorites and cart filters apply to the
// viewer and are ignored for anonymous viewers.
type RecipeFilter struct {
	AuthorID      uuid.UUID
	TagSlugs      []string
	FavoritedOnly bool
	InCartOnly    bool
}

// RecipeView is a recipe with flags relative to the viewer.
type RecipeView struct {
	Recipe           models.Recipe
	AuthorSubscribed bool
	IsFavorited      bool
	IsInShoppingCart bool
}

type RecipeService struct {
	db     database.Database
	images ImageStore
	logger zerolog.Logger
}

func NewRecipeService(db database.Database, images ImageStore) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
		logger: log.With().Str("serviceName", "recipeService").Logger(),
	}
}

// Create validates input and writes the recipe, its tag links and its
// ingredient lines in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*RecipeView, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.checkNameFree(ctx, in.Name, uuid.Nil); err != nil {
		return nil, err
	}
	if err := checkName(in.Name); err != nil {
		return nil, err
	}
	if err := checkText(in.Text); err != nil {
		return nil, err
	}
	if err := checkCookingTime(in.CookingTime); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Image) == "" {
		return nil, errs.NewMissingRequiredFieldError("image")
	}
	tagIDs, err := checkTagIDs(in.TagIDs)
	if err != nil {
		return nil, err
	}
	if err := checkIngredientAmounts(in.Ingredients); err != nil {
		return nil, err
	}

	img, err := DecodeDataURI(in.Image)
	if err != nil {
		return nil, err
	}
	// Saved outside the transaction: a later rollback leaves the object in
	// storage, where an upload of the same bytes reuses its key.
	imageURL, err := s.images.Save(ctx, img)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       imageURL,
	}
	err = s.db.Transaction(ctx, func(tx database.Database) error {
		tags, err := resolveTags(ctx, tx, tagIDs)
		if err != nil {
			return err
		}
		lines, err := resolveLines(ctx, tx, in.Ingredients)
		if err != nil {
			return err
		}

		if err := tx.RecipeRepo().Add(ctx, &recipe); err != nil {
			return errs.NewDatabaseError("create", "recipe", err)
		}
		if err := tx.RecipeRepo().ReplaceTags(ctx, recipe.ID, tags); err != nil {
			return errs.NewDatabaseError("link", "recipe tags", err)
		}
		if err := tx.RecipeRepo().ReplaceIngredients(ctx, recipe.ID, lines); err != nil {
			return errs.NewDatabaseError("create", "recipe ingredients", err)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("create", "recipe", err)
	}

	s.logger.Info().Str("recipeID", recipe.ID.String()).Str("authorID", authorID.String()).Msg("recipe created")
	return s.Get(ctx, authorID, recipe.ID)
}

// Update applies patch to a recipe owned by viewerID. Supplied tags or
// ingredients replace the whole set; omitted ones stay as they are.
func (s *RecipeService) Update(ctx context.Context, viewerID, recipeID uuid.UUID, patch RecipePatch) (*RecipeView, error) {
	if _, err := s.ownedRecipe(ctx, viewerID, recipeID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := s.checkNameFree(ctx, name, recipeID); err != nil {
			return nil, err
		}
		if err := checkName(name); err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if patch.Text != nil {
		if err := checkText(*patch.Text); err != nil {
			return nil, err
		}
		fields["text"] = *patch.Text
	}
	if patch.CookingTime != nil {
		if err := checkCookingTime(*patch.CookingTime); err != nil {
			return nil, err
		}
		fields["cooking_time"] = *patch.CookingTime
	}

	var tagIDs []uuid.UUID
	if patch.TagIDs != nil {
		ids, err := checkTagIDs(*patch.TagIDs)
		if err != nil {
			return nil, err
		}
		tagIDs = ids
	}
	if patch.Ingredients != nil {
		if err := checkIngredientAmounts(*patch.Ingredients); err != nil {
			return nil, err
		}
	}

	if patch.Image != nil {
		img, err := DecodeDataURI(*patch.Image)
		if err != nil {
			return nil, err
		}
		// not rolled back with the transaction below
		url, err := s.images.Save(ctx, img)
		if err != nil {
			return nil, err
		}
		fields["image"] = url
	}

	err := s.db.Transaction(ctx, func(tx database.Database) error {
		if err := tx.RecipeRepo().UpdateFields(ctx, recipeID, fields); err != nil {
			return errs.NewDatabaseError("update", "recipe", err)
		}
		if patch.TagIDs != nil {
			tags, err := resolveTags(ctx, tx, tagIDs)
			if err != nil {
				return err
			}
			if err := tx.RecipeRepo().ReplaceTags(ctx, recipeID, tags); err != nil {
				return errs.NewDatabaseError("link", "recipe tags", err)
			}
		}
		if patch.Ingredients != nil {
			lines, err := resolveLines(ctx, tx, *patch.Ingredients)
			if err != nil {
				return err
			}
			if err := tx.RecipeRepo().ReplaceIngredients(ctx, recipeID, lines); err != nil {
				return errs.NewDatabaseError("update", "recipe ingredients", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("update", "recipe", err)
	}

	s.logger.Info().Str("recipeID", recipeID.String()).Msg("recipe updated")
	return s.Get(ctx, viewerID, recipeID)
}

// Delete removes a recipe owned by viewerID along with its lines, tag links,
// favorites and cart entries.
func (s *RecipeService) Delete(ctx context.Context, viewerID, recipeID uuid.UUID) error {
	if _, err := s.ownedRecipe(ctx, viewerID, recipeID); err != nil {
		return err
	}
	if err := s.db.RecipeRepo().Delete(ctx, recipeID); err != nil {
		return errs.NewDatabaseError("delete", "recipe", err)
	}

	s.logger.Info().Str("recipeID", recipeID.String()).Msg("recipe deleted")
	return nil
}

// Get returns the read projection of one recipe. viewerID is uuid.Nil for
// anonymous readers.
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID uuid.UUID) (*RecipeView, error) {
	recipe, err := s.db.RecipeRepo().FindByID(ctx, recipeID)
	if err != nil {
		return nil, errs.NewDatabaseError("get", "recipe", err)
	}

	views, err := s.project(ctx, viewerID, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *RecipeService) List(ctx context.Context, viewerID uuid.UUID, f RecipeFilter, p Page) ([]RecipeView, int64, error) {
	filter := database.RecipeFilter{AuthorID: f.AuthorID, TagSlugs: f.TagSlugs}
	if viewerID != uuid.Nil {
		if f.FavoritedOnly {
			filter.FavoritedBy = viewerID
		}
		if f.InCartOnly {
			filter.InCartOf = viewerID
		}
	}

	recipes, total, err := s.db.RecipeRepo().List(ctx, filter, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, errs.NewDatabaseError("list", "recipes", err)
	}

	views, err := s.project(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// project attaches viewer flags to recipes, one set query per flag.
func (s *RecipeService) project(ctx context.Context, viewerID uuid.UUID, recipes []models.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	for i, r := range recipes {
		views[i] = RecipeView{Recipe: r}
	}
	if viewerID == uuid.Nil || len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	var favorited, inCart, subscribed map[uuid.UUID]bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		favorited, err = s.db.FavoriteRepo().RecipeIDsAmong(gctx, viewerID, recipeIDs)
		return err
	})
	g.Go(func() error {
		var err error
		inCart, err = s.db.CartRepo().RecipeIDsAmong(gctx, viewerID, recipeIDs)
		return err
	})
	g.Go(func() error {
		var err error
		subscribed, err = s.db.SubscriptionRepo().SubscribedAmong(gctx, viewerID, authorIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errs.NewDatabaseError("resolve", "recipe flags", err)
	}

	for i := range views {
		r := views[i].Recipe
		views[i].IsFavorited = favorited[r.ID]
		views[i].IsInShoppingCart = inCart[r.ID]
		views[i].AuthorSubscribed = r.AuthorID != viewerID && subscribed[r.AuthorID]
	}
	return views, nil
}

func (s *RecipeService) ownedRecipe(ctx context.Context, viewerID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.db.RecipeRepo().FindPlain(ctx, recipeID)
	if err != nil {
		return nil, errs.NewDatabaseError("get", "recipe", err)
	}
	if recipe.AuthorID != viewerID {
		return nil, errs.NewPermissionDeniedError("only the author may change this recipe")
	}
	return recipe, nil
}

func (s *RecipeService) checkNameFree(ctx context.Context, name string, excludeID uuid.UUID) error {
	if name == "" {
		return nil
	}
	taken, err := s.db.RecipeRepo().ExistsByName(ctx, name, excludeID)
	if err != nil {
		return errs.NewDatabaseError("check", "recipe", err)
	}
	if taken {
		return errs.NewBadRequestErrorWithField("recipe with this name already exists", "name", "")
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return errs.NewMissingRequiredFieldError("name")
	}
	if len([]rune(name)) > 200 {
		return errs.NewInvalidFieldError("name", "ensure this field has no more than 200 characters")
	}
	return nil
}

func checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errs.NewMissingRequiredFieldError("text")
	}
	return nil
}

func checkCookingTime(minutes int) error {
	if minutes < 1 {
		return errs.NewInvalidFieldError("cooking_time", "ensure this value is greater than or equal to 1")
	}
	return nil
}

// checkTagIDs requires at least one tag and drops repeats.
func checkTagIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, errs.NewInvalidFieldError("tags", "at least one tag is required")
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique, nil
}

func checkIngredientAmounts(lines []IngredientAmount) error {
	if len(lines) == 0 {
		return errs.NewInvalidFieldError("ingredients", "at least one ingredient is required")
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if seen[l.IngredientID] {
			return errs.NewDuplicateReferenceError("ingredients", l.IngredientID)
		}
		seen[l.IngredientID] = true
	}
	for _, l := range lines {
		if l.Amount < 1 {
			return errs.NewInvalidFieldError("ingredients", "amount must be at least 1")
		}
	}
	return nil
}

func resolveTags(ctx context.Context, tx database.Database, ids []uuid.UUID) ([]models.Tag, error) {
	tags, err := tx.TagRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, errs.NewDatabaseError("get", "tags", err)
	}
	if len(tags) != len(ids) {
		found := make(map[uuid.UUID]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, errs.NewNotFoundError("tag " + id.String() + " not found")
			}
		}
	}
	return tags, nil
}

func resolveLines(ctx context.Context, tx database.Database, amounts []IngredientAmount) ([]models.RecipeIngredient, error) {
	ids := make([]uuid.UUID, 0, len(amounts))
	for _, a := range amounts {
		ids = append(ids, a.IngredientID)
	}

	ingredients, err := tx.IngredientRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, errs.NewDatabaseError("get", "ingredients", err)
	}
	found := make(map[uuid.UUID]bool, len(ingredients))
	for _, i := range ingredients {
		found[i.ID] = true
	}

	lines := make([]models.RecipeIngredient, 0, len(amounts))
	for _, a := range amounts {
		if !found[a.IngredientID] {
			return nil, errs.NewNotFoundError("ingredient " + a.IngredientID.String() + " not found")
		}
		lines = append(lines, models.RecipeIngredient{IngredientID: a.IngredientID, Amount: a.Amount})
	}
	return lines, nil
}
