// Package profilestore persists analysis profiles, either as YAML files in a
// directory or as documents in a MongoDB collection.
package profilestore

import (
	"context"

	"github.com/pkg/errors"

	"gastruloid/internal/models"
)

// ErrProfileExists is returned when creating a profile whose name is taken
var ErrProfileExists = errors.New("profile already exists")

// Store saves and retrieves profiles by name
type Store interface {
	// Create validates and saves a new profile
	Create(ctx context.Context, p *models.Profile) error

	// Get returns the named profile, or a *models.NotFoundError
	Get(ctx context.Context, name string) (*models.Profile, error)

	// List returns all profile names in ascending order
	List(ctx context.Context) ([]string, error)
}

func notFound(name string) error {
	return &models.NotFoundError{Kind: "profile", Name: name}
}
