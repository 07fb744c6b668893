package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
)

const cardLoadConcurrency = 4

// AuthorCard is a followed author with their newest recipes.
type AuthorCard struct {
	Author       models.User
	IsSubscribed bool
	Recipes      []models.Recipe
	RecipesCount int64
}

type SubscriptionService struct {
	db     database.Database
	logger zerolog.Logger
}

func NewSubscriptionService(db database.Database) *SubscriptionService {
	return &SubscriptionService{
		db:     db,
		logger: log.With().Str("serviceName", "subscriptionService").Logger(),
	}
}

// Subscribe makes subscriberID follow authorID. recipesLimit <= 0 includes
// every recipe in the returned card.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID, authorID uuid.UUID, recipesLimit int) (*AuthorCard, error) {
	author, err := s.db.UserRepo().FindByID(ctx, authorID)
	if err != nil {
		return nil, errs.NewDatabaseError("get", "user", err)
	}
	if subscriberID == authorID {
		return nil, errs.NewSelfSubscriptionError()
	}

	exists, err := s.db.SubscriptionRepo().Exists(ctx, subscriberID, authorID)
	if err != nil {
		return nil, errs.NewDatabaseError("check", "subscription", err)
	}
	if exists {
		return nil, errs.NewAlreadySubscribedError()
	}

	if err := s.db.SubscriptionRepo().Add(ctx, &models.Subscription{UserID: subscriberID, AuthorID: authorID}); err != nil {
		return nil, errs.NewDatabaseError("create", "subscription", err)
	}

	s.logger.Info().Str("userID", subscriberID.String()).Str("authorID", authorID.String()).Msg("subscribed")
	return s.card(ctx, *author, recipesLimit)
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID, authorID uuid.UUID) error {
	if _, err := s.db.UserRepo().FindByID(ctx, authorID); err != nil {
		return errs.NewDatabaseError("get", "user", err)
	}

	removed, err := s.db.SubscriptionRepo().Delete(ctx, subscriberID, authorID)
	if err != nil {
		return errs.NewDatabaseError("delete", "subscription", err)
	}
	if removed == 0 {
		return errs.NewNotSubscribedError()
	}
	return nil
}

// List pages through the authors subscriberID follows.
func (s *SubscriptionService) List(ctx context.Context, subscriberID uuid.UUID, recipesLimit int, p Page) ([]AuthorCard, int64, error) {
	authors, total, err := s.db.SubscriptionRepo().AuthorsOf(ctx, subscriberID, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, errs.NewDatabaseError("list", "subscriptions", err)
	}

	cards := make([]AuthorCard, len(authors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cardLoadConcurrency)
	for i, author := range authors {
		g.Go(func() error {
			card, err := s.card(gctx, author, recipesLimit)
			if err != nil {
				return err
			}
			cards[i] = *card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (s *SubscriptionService) card(ctx context.Context, author models.User, recipesLimit int) (*AuthorCard, error) {
	recipes, err := s.db.RecipeRepo().LatestByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "recipes", err)
	}
	count, err := s.db.RecipeRepo().CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, errs.NewDatabaseError("count", "recipes", err)
	}
	return &AuthorCard{
		Author:       author,
		IsSubscribed: true,
		Recipes:      recipes,
		RecipesCount: count,
	}, nil
}
