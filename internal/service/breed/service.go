// Package breed implements the application service for the breed
// registry. It enforces cross-entity rules such as name uniqueness,
// translates repository failures into the API error taxonomy and
// emits business events.
package breed

import (
	"context"
	"errors"
	"fmt"

	"herdbook-backend/internal/domain/breed"
	"herdbook-backend/internal/logging"
	"herdbook-backend/internal/repository"
	apperrors "herdbook-backend/pkg/errors"
)

// Service orchestrates breed operations over the repository port.
type Service struct {
	repo   repository.BreedRepository
	logger *logging.Logger
}

// NewService creates a breed service.
func NewService(repo repository.BreedRepository, logger *logging.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create registers a new breed. The name must not already be taken,
// case-insensitively.
func (s *Service) Create(ctx context.Context, attrs breed.Attributes) (*breed.Breed, error) {
	b, err := breed.New(attrs)
	if err != nil {
		return nil, asAppError(err)
	}

	op := s.logger.StartOperation(ctx, "breed_create", logging.Fields{"name": b.Name})
	if err := s.repo.Create(ctx, b); err != nil {
		op.End(err)
		return nil, asAppError(err)
	}
	op.End(nil)

	logging.LogBusinessEvent(s.logger, ctx, "breed_registered", logging.Fields{
		"breed_id": b.ID,
		"name":     b.Name,
	})
	return b, nil
}

// Get returns the breed with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*breed.Breed, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, asAppError(err)
	}
	return b, nil
}

// List returns one page of breeds matching the query.
func (s *Service) List(ctx context.Context, q repository.BreedQuery) (*repository.BreedPage, error) {
	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, asAppError(err)
	}
	return page, nil
}

// Update modifies an existing breed in place.
func (s *Service) Update(ctx context.Context, id string, attrs breed.Attributes) (*breed.Breed, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, asAppError(err)
	}
	if err := b.Update(attrs); err != nil {
		return nil, asAppError(err)
	}

	op := s.logger.StartOperation(ctx, "breed_update", logging.Fields{"breed_id": id})
	if err := s.repo.Update(ctx, b); err != nil {
		op.End(err)
		return nil, asAppError(err)
	}
	op.End(nil)

	logging.LogBusinessEvent(s.logger, ctx, "breed_updated", logging.Fields{
		"breed_id": b.ID,
		"name":     b.Name,
	})
	return b, nil
}

// Delete soft deletes a breed. The record is kept but excluded from
// active listings.
func (s *Service) Delete(ctx context.Context, id string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return asAppError(err)
	}
	if !b.IsActive {
		return apperrors.NewNotFound("breed", id)
	}

	b.Deactivate()
	if err := s.repo.Update(ctx, b); err != nil {
		return asAppError(err)
	}

	logging.LogBusinessEvent(s.logger, ctx, "breed_deactivated", logging.Fields{
		"breed_id": b.ID,
		"name":     b.Name,
	})
	return nil
}

// asAppError maps lower-layer failures into the API taxonomy. Errors
// it does not recognize become internal errors so their detail never
// reaches clients.
func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var validationErr *breed.ValidationError
	if errors.As(err, &validationErr) {
		return apperrors.NewValidation(validationErr.Reason, validationErr.Field)
	}

	var notFound repository.ErrNotFound
	if errors.As(err, &notFound) {
		return apperrors.NewNotFound(notFound.Resource, notFound.ID)
	}

	var conflict repository.ErrConflict
	if errors.As(err, &conflict) {
		return apperrors.NewConflict(
			fmt.Sprintf("A %s named '%s' already exists", conflict.Resource, conflict.ID),
			"name",
		)
	}

	return apperrors.NewInternal(err)
}
