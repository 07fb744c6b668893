package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers every /api route. Reads are open to anonymous
// callers; writes need a token.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Get("/health", handlers.healthHandler.health())
	r.Post("/auth/token/login", handlers.authHandler.login())
	r.Post("/users", handlers.userHandler.register())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.identify)

		r.Get("/users", handlers.userHandler.listUsers())
		r.Get("/users/{userID}", handlers.userHandler.getUser())

		r.Get("/tags", handlers.catalogHandler.listTags())
		r.Get("/tags/{tagID}", handlers.catalogHandler.getTag())
		r.Get("/ingredients", handlers.catalogHandler.listIngredients())
		r.Get("/ingredients/{ingredientID}", handlers.catalogHandler.getIngredient())

		r.Get("/recipes", handlers.recipeHandler.listRecipes())
		r.Get("/recipes/{recipeID}", handlers.recipeHandler.getRecipe())

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.requireUser)

			r.Post("/auth/token/logout", handlers.authHandler.logout())

			r.Get("/users/me", handlers.userHandler.me())
			r.Post("/users/set_password", handlers.userHandler.setPassword())
			r.Get("/users/subscriptions", handlers.userHandler.listSubscriptions())
			r.Post("/users/{userID}/subscribe", handlers.userHandler.subscribe())
			r.Delete("/users/{userID}/subscribe", handlers.userHandler.unsubscribe())

			r.Post("/recipes", handlers.recipeHandler.createRecipe())
			r.Get("/recipes/download_shopping_cart", handlers.recipeHandler.downloadShoppingCart())
			r.Patch("/recipes/{recipeID}", handlers.recipeHandler.updateRecipe())
			r.Delete("/recipes/{recipeID}", handlers.recipeHandler.deleteRecipe())
			r.Post("/recipes/{recipeID}/favorite", handlers.recipeHandler.addFavorite())
			r.Delete("/recipes/{recipeID}/favorite", handlers.recipeHandler.removeFavorite())
			r.Post("/recipes/{recipeID}/shopping_cart", handlers.recipeHandler.addToCart())
			r.Delete("/recipes/{recipeID}/shopping_cart", handlers.recipeHandler.removeFromCart())
		})
	})
}
