package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150,password"`
}

// UserView is a user as seen by a particular viewer.
type UserView struct {
	User         models.User
	IsSubscribed bool
}

type UserService struct {
	db         database.Database
	bcryptCost int
	logger     zerolog.Logger
}

func NewUserService(db database.Database) *UserService {
	return &UserService{
		db:         db,
		bcryptCost: bcrypt.DefaultCost,
		logger:     log.With().Str("serviceName", "userService").Logger(),
	}
}

// WithBcryptCost overrides the hashing cost.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	exists, err := s.db.UserRepo().ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, errs.NewDatabaseError("check", "user", err)
	}
	if exists {
		return nil, errs.NewBadRequestErrorWithField("user with this email already exists", "email", "")
	}

	exists, err = s.db.UserRepo().ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, errs.NewDatabaseError("check", "user", err)
	}
	if exists {
		return nil, errs.NewBadRequestErrorWithField("user with this username already exists", "username", "")
	}

	hash, err := hashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to hash password", err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}
	if err := s.db.UserRepo().Add(ctx, user); err != nil {
		return nil, errs.NewDatabaseError("create", "user", err)
	}

	s.logger.Info().Str("userID", user.ID.String()).Msg("user registered")
	return user, nil
}

// Get returns a user with is_subscribed relative to viewerID (uuid.Nil for anonymous).
func (s *UserService) Get(ctx context.Context, viewerID, id uuid.UUID) (*UserView, error) {
	user, err := s.db.UserRepo().FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("get", "user", err)
	}

	flags, err := s.subscribedAmong(ctx, viewerID, []uuid.UUID{user.ID})
	if err != nil {
		return nil, err
	}
	return &UserView{User: *user, IsSubscribed: flags[user.ID]}, nil
}

func (s *UserService) List(ctx context.Context, viewerID uuid.UUID, p Page) ([]UserView, int64, error) {
	users, total, err := s.db.UserRepo().List(ctx, p.Offset(), p.Limit)
	if err != nil {
		return nil, 0, errs.NewDatabaseError("list", "users", err)
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	flags, err := s.subscribedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, UserView{User: u, IsSubscribed: flags[u.ID]})
	}
	return views, total, nil
}

// subscribedAmong never marks the viewer as subscribed to themself.
func (s *UserService) subscribedAmong(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	if viewerID == uuid.Nil {
		return map[uuid.UUID]bool{}, nil
	}
	flags, err := s.db.SubscriptionRepo().SubscribedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, errs.NewDatabaseError("check", "subscriptions", err)
	}
	delete(flags, viewerID)
	return flags, nil
}

// SetPassword checks the current password, stores the new one and revokes
// outstanding tokens.
func (s *UserService) SetPassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" {
		return errs.NewMissingRequiredFieldError("current_password")
	}
	if next == "" {
		return errs.NewMissingRequiredFieldError("new_password")
	}

	user, err := s.db.UserRepo().FindByID(ctx, userID)
	if err != nil {
		return errs.NewDatabaseError("get", "user", err)
	}
	if !checkPasswordHash(current, user.PasswordHash) {
		return errs.NewInvalidFieldError("current_password", "wrong password")
	}
	if current == next {
		return errs.NewInvalidFieldError("new_password", "new password must differ from the current one")
	}
	if reason := checkPasswordRules(next); reason != "" {
		return errs.NewInvalidFieldError("new_password", reason)
	}

	hash, err := hashPassword(next, s.bcryptCost)
	if err != nil {
		return errs.NewInternalErrorWithCause("failed to hash password", err)
	}
	if err := s.db.UserRepo().UpdatePassword(ctx, userID, hash); err != nil {
		return errs.NewDatabaseError("update", "user", err)
	}

	s.logger.Info().Str("userID", userID.String()).Msg("password changed")
	return nil
}
