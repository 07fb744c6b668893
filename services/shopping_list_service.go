package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
)

type ShoppingListService struct {
	db database.Database
}

func NewShoppingListService(db database.Database) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Build sums the ingredients of every recipe in the user's cart.
func (s *ShoppingListService) Build(ctx context.Context, userID uuid.UUID) ([]database.IngredientTotal, error) {
	totals, err := s.db.CartRepo().ShoppingList(ctx, userID)
	if err != nil {
		return nil, errs.NewDatabaseError("build", "shopping list", err)
	}
	return totals, nil
}

// Render formats totals as a plain-text list headed by the user's name.
func Render(username string, totals []database.IngredientTotal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for %s:\n", username)
	for _, t := range totals {
		fmt.Fprintf(&b, "%s - %d %s.\n", t.Name, t.Amount, t.MeasurementUnit)
	}
	return b.String()
}
