package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Engagement errors: favorites, cart and subscriptions.
var (
	ErrSelfSubscription   = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed  = errors.New("already subscribed")
	ErrNotSubscribed      = errors.New("not subscribed")
	ErrAlreadyFavorited   = errors.New("recipe already in favorites")
	ErrNotFavorited       = errors.New("recipe not in favorites")
	ErrNotInShoppingCart  = errors.New("recipe not in shopping cart")
	ErrDuplicateReference = errors.New("duplicate reference")
)

// Configuration & media errors
var (
	ErrConfigMissing = errors.New("configuration missing")
	ErrConfigInvalid = errors.New("configuration invalid")
	ErrInvalidImage  = errors.New("invalid image")
	ErrMediaStorage  = errors.New("media storage failed")
)

func NewSelfSubscriptionError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrSelfSubscription,
		Field:      "author",
	}
}

func NewAlreadySubscribedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrAlreadySubscribed,
		Field:      "author",
	}
}

func NewNotSubscribedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        ErrNotSubscribed,
		Field:      "author",
	}
}

func NewAlreadyFavoritedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrAlreadyFavorited,
		Field:      "recipe",
	}
}

func NewNotFavoritedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        ErrNotFavorited,
		Field:      "recipe",
	}
}

func NewNotInShoppingCartError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        ErrNotInShoppingCart,
		Field:      "recipe",
	}
}

func NewDuplicateReferenceError(field string, id fmt.Stringer) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrDuplicateReference,
		Details:    fmt.Sprintf("%s listed more than once", id),
		Field:      field,
	}
}

func NewConfigMissingError(key string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration key %s is not set", key),
		Field:      key,
	}
}

func NewConfigInvalidError(key, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Configuration key %s is invalid: %s", key, reason),
		Field:      key,
	}
}

func NewInvalidImageError(reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidImage,
		Details:    reason,
		Field:      "image",
	}
}

func NewMediaStorageError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrMediaStorage,
		Details:    fmt.Sprintf("Failed to %s media", operation),
		Cause:      cause,
	}
}

func IsSelfSubscriptionError(err error) bool {
	return errors.Is(err, ErrSelfSubscription)
}

func IsAlreadySubscribedError(err error) bool {
	return errors.Is(err, ErrAlreadySubscribed)
}

func IsAlreadyFavoritedError(err error) bool {
	return errors.Is(err, ErrAlreadyFavorited)
}

func IsInvalidImageError(err error) bool {
	return errors.Is(err, ErrInvalidImage)
}
