package api

import (
	"time"

	"github.com/rpupo63/foodgram-backend/config"
	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/services"
)

// initializeHandlers wires services to handlers for one router
func initializeHandlers(db database.Database, images services.ImageStore, tokens *services.TokenService, r router) *routeHandlers {
	p := paginator{
		pageSize:    config.GetInt(r.config, "PAGE_SIZE", 6),
		maxPageSize: config.GetInt(r.config, "MAX_PAGE_SIZE", 100),
	}
	filename := config.GetString(r.config, "SHOPPING_LIST_FILENAME", "shopping_list.txt")

	return &routeHandlers{
		authHandler: newAuthHandler(tokens),
		userHandler: newUserHandler(
			services.NewUserService(db).WithBcryptCost(r.bcryptCost),
			services.NewSubscriptionService(db),
			p,
		),
		catalogHandler: newCatalogHandler(db.TagRepo(), db.IngredientRepo()),
		recipeHandler: newRecipeHandler(
			services.NewRecipeService(db, images),
			services.NewEngagementService(db),
			services.NewShoppingListService(db),
			p,
			filename,
		),
		healthHandler: newHealthHandler(db, r.startupTime),
	}
}

func tokenTTL(c map[string]string) time.Duration {
	return time.Duration(config.GetInt(c, "JWT_TTL_HOURS", 24)) * time.Hour
}
