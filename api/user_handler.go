package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/services"
)

type userHandler struct {
	responder     Responder
	logger        zerolog.Logger
	paginator     paginator
	users         *services.UserService
	subscriptions *services.SubscriptionService
}

func newUserHandler(users *services.UserService, subscriptions *services.SubscriptionService, p paginator) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder:     NewResponder(logger),
		logger:        logger,
		paginator:     p,
		users:         users,
		subscriptions: subscriptions,
	}
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewBadRequestError("missing " + name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestErrorWithField("invalid "+name, name, err.Error())
	}
	return id, nil
}

// listUsers pages through all users
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} Page[UserResponse]
// @Router /users [get]
func (h userHandler) listUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.paginator.parse(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		views, total, err := h.users.List(r.Context(), viewerID(r.Context()), page)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		results := make([]UserResponse, 0, len(views))
		for _, v := range views {
			results = append(results, newUserResponse(v.User, v.IsSubscribed))
		}
		h.responder.WriteJSON(w, pageOf(r, page, total, results))
	}
}

// register creates an account
// @Summary Register
// @Tags Users
// @Accept json
// @Produce json
// @Param user body services.RegisterInput true "New user"
// @Success 201 {object} CreatedUserResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid user data"
// @Router /users [post]
func (h userHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.RegisterInput
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.users.Register(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, CreatedUserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}
}

// me returns the caller
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/me [get]
func (h userHandler) me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, newUserResponse(*userFromCtx(r.Context()), false))
	}
}

// getUser returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Param userID path string true "User ID" format(uuid)
// @Success 200 {object} UserResponse
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /users/{userID} [get]
func (h userHandler) getUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "userID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		view, err := h.users.Get(r.Context(), viewerID(r.Context()), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newUserResponse(view.User, view.IsSubscribed))
	}
}

// setPassword changes the caller's password
// @Summary Set password
// @Tags Users
// @Accept json
// @Param passwords body setPasswordRequest true "Current and new password"
// @Success 204
// @Failure 400 {object} ErrorResponse "Bad Request"
// @Router /users/set_password [post]
func (h userHandler) setPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setPasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.users.SetPassword(r.Context(), viewerID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

// listSubscriptions pages through the authors the caller follows
// @Summary My subscriptions
// @Tags Users
// @Produce json
// @Param recipes_limit query int false "Recipes per author"
// @Success 200 {object} Page[AuthorCardResponse]
// @Router /users/subscriptions [get]
func (h userHandler) listSubscriptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.paginator.parse(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		recipesLimit, err := positiveQueryInt(r, "recipes_limit")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		cards, total, err := h.subscriptions.List(r.Context(), viewerID(r.Context()), recipesLimit, page)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		results := make([]AuthorCardResponse, 0, len(cards))
		for _, c := range cards {
			results = append(results, newAuthorCardResponse(c))
		}
		h.responder.WriteJSON(w, pageOf(r, page, total, results))
	}
}

// subscribe follows an author
// @Summary Subscribe
// @Tags Users
// @Produce json
// @Param userID path string true "Author ID" format(uuid)
// @Param recipes_limit query int false "Recipes in the card"
// @Success 201 {object} AuthorCardResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Self or duplicate subscription"
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /users/{userID}/subscribe [post]
func (h userHandler) subscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID, err := pathID(r, "userID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		recipesLimit, err := positiveQueryInt(r, "recipes_limit")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		card, err := h.subscriptions.Subscribe(r.Context(), viewerID(r.Context()), authorID, recipesLimit)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, newAuthorCardResponse(*card))
	}
}

// unsubscribe stops following an author
// @Summary Unsubscribe
// @Tags Users
// @Param userID path string true "Author ID" format(uuid)
// @Success 204
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /users/{userID}/subscribe [delete]
func (h userHandler) unsubscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID, err := pathID(r, "userID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.subscriptions.Unsubscribe(r.Context(), viewerID(r.Context()), authorID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}
