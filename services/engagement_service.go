package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
)

// EngagementService toggles favorites and shopping cart membership.
// A duplicate favorite is an error; a duplicate cart add is a no-op.
type EngagementService struct {
	db     database.Database
	logger zerolog.Logger
}

func NewEngagementService(db database.Database) *EngagementService {
	return &EngagementService{
		db:     db,
		logger: log.With().Str("serviceName", "engagementService").Logger(),
	}
}

func (s *EngagementService) recipe(ctx context.Context, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.db.RecipeRepo().FindPlain(ctx, recipeID)
	if err != nil {
		return nil, errs.NewDatabaseError("get", "recipe", err)
	}
	return recipe, nil
}

func (s *EngagementService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	exists, err := s.db.FavoriteRepo().Exists(ctx, userID, recipeID)
	if err != nil {
		return nil, errs.NewDatabaseError("check", "favorite", err)
	}
	if exists {
		return nil, errs.NewAlreadyFavoritedError()
	}

	if err := s.db.FavoriteRepo().Add(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}); err != nil {
		return nil, errs.NewDatabaseError("create", "favorite", err)
	}
	return recipe, nil
}

func (s *EngagementService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}

	removed, err := s.db.FavoriteRepo().Delete(ctx, userID, recipeID)
	if err != nil {
		return errs.NewDatabaseError("delete", "favorite", err)
	}
	if removed == 0 {
		return errs.NewNotFavoritedError()
	}
	return nil
}

// AddToCart reports added=false when the recipe was already in the cart.
func (s *EngagementService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, bool, error) {
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, false, err
	}

	exists, err := s.db.CartRepo().Exists(ctx, userID, recipeID)
	if err != nil {
		return nil, false, errs.NewDatabaseError("check", "shopping cart item", err)
	}
	if exists {
		return recipe, false, nil
	}

	if err := s.db.CartRepo().Add(ctx, &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}); err != nil {
		if errs.IsUniqueViolation(err) {
			s.logger.Debug().Str("recipeID", recipeID.String()).Msg("concurrent cart add ignored")
			return recipe, false, nil
		}
		return nil, false, errs.NewDatabaseError("create", "shopping cart item", err)
	}
	return recipe, true, nil
}

func (s *EngagementService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}

	removed, err := s.db.CartRepo().Delete(ctx, userID, recipeID)
	if err != nil {
		return errs.NewDatabaseError("delete", "shopping cart item", err)
	}
	if removed == 0 {
		return errs.NewNotInShoppingCartError()
	}
	return nil
}
