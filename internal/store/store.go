package store

import (
	"context"
	"errors"

	"github.com/plateiq/pkg/models"
)

// ErrNotFound is returned when a customer id has never been analyzed.
var ErrNotFound = errors.New("customer not found")

// ProfileStore persists the latest profile snapshot per customer. Backends
// are swappable; scoring logic never touches storage directly.
type ProfileStore interface {
	Get(ctx context.Context, id string) (models.CustomerProfile, error)
	Put(ctx context.Context, profile models.CustomerProfile) error
	List(ctx context.Context) ([]models.CustomerProfile, error)
}
