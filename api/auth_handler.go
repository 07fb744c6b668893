package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/services"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	tokens    *services.TokenService
}

func newAuthHandler(tokens *services.TokenService) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		tokens:    tokens,
	}
}

// login exchanges credentials for a token
// @Summary Obtain token
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Email and password"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid credentials"
// @Router /auth/token/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		token, err := h.tokens.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, TokenResponse{AuthToken: token})
	}
}

// logout revokes every token of the caller
// @Summary Revoke tokens
// @Tags Auth
// @Success 204
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/token/logout [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.tokens.Logout(r.Context(), viewerID(r.Context())); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}
