// Package repository defines the persistence ports for the breed
// registry and their error contract. Implementations live in
// subpackages.
package repository

import (
	"context"

	"herdbook-backend/internal/domain/breed"
)

// Pagination limits for breed listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// BreedQuery narrows a listing. Zero values mean "no constraint".
type BreedQuery struct {
	Page       int
	Size       int
	Search     string
	ActiveOnly bool
}

// Normalize clamps the query into valid bounds.
func (q BreedQuery) Normalize() BreedQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

// BreedPage is one page of a listing.
type BreedPage struct {
	Items []*breed.Breed
	Total int
	Page  int
	Size  int
}

// BreedRepository is the persistence port for breeds.
type BreedRepository interface {
	Create(ctx context.Context, b *breed.Breed) error
	GetByID(ctx context.Context, id string) (*breed.Breed, error)
	GetByName(ctx context.Context, name string) (*breed.Breed, error)
	List(ctx context.Context, q BreedQuery) (*BreedPage, error)
	Update(ctx context.Context, b *breed.Breed) error
}
