package services

import (
	"errors"
	"math"

	"gorm.io/gorm"
)

// Page selects a 1-based page of Limit items.
type Page struct {
	Number int
	Limit  int
}

// MaxOffset bounds the row offset any page may reach.
const MaxOffset = math.MaxInt32

// InRange reports whether the page starts within MaxOffset.
func (p Page) InRange() bool {
	if p.Number < 1 || p.Limit < 1 {
		return true
	}
	return p.Number-1 <= MaxOffset/p.Limit
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
