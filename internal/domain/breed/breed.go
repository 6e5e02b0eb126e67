// Package breed implements the horse breed domain entity.
//
// Breed is the aggregate root of the registry: all invariants about a
// breed's identity and physical profile are enforced here, so no other
// layer can construct an invalid breed.
package breed

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field constraints enforced on construction and update.
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MaxCountryLength     = 100
	MaxDescriptionLength = 1000
	MaxTemperamentLength = 200
	MaxPrimaryUseLength  = 100

	MinHeightCM = 50
	MaxHeightCM = 250
	MinWeightKG = 200
	MaxWeightKG = 1500
)

// Breed is a registered horse breed.
type Breed struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	OriginCountry   string    `json:"origin_country,omitempty"`
	Description     string    `json:"description,omitempty"`
	AverageHeightCM float64   `json:"average_height_cm,omitempty"`
	AverageWeightKG float64   `json:"average_weight_kg,omitempty"`
	Temperament     string    `json:"temperament,omitempty"`
	PrimaryUse      string    `json:"primary_use,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Attributes carries the mutable fields of a breed. Nil pointers mean
// "leave unchanged" on update and "unset" on creation.
type Attributes struct {
	Name            string
	OriginCountry   *string
	Description     *string
	AverageHeightCM *float64
	AverageWeightKG *float64
	Temperament     *string
	PrimaryUse      *string
}

// New creates a breed from validated attributes.
func New(attrs Attributes) (*Breed, error) {
	name := strings.TrimSpace(attrs.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &Breed{
		ID:        uuid.New().String(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.apply(attrs); err != nil {
		return nil, err
	}
	return b, nil
}

// Update applies the given attributes in place. An empty Name keeps
// the current name.
func (b *Breed) Update(attrs Attributes) error {
	if attrs.Name != "" {
		name := strings.TrimSpace(attrs.Name)
		if err := validateName(name); err != nil {
			return err
		}
		b.Name = name
	}
	if err := b.apply(attrs); err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate soft deletes the breed. It stays queryable for audit but
// disappears from active listings.
func (b *Breed) Deactivate() {
	b.IsActive = false
	b.UpdatedAt = time.Now().UTC()
}

func (b *Breed) apply(attrs Attributes) error {
	if attrs.OriginCountry != nil {
		v := strings.TrimSpace(*attrs.OriginCountry)
		if len(v) > MaxCountryLength {
			return &ValidationError{Field: "origin_country", Reason: fmt.Sprintf("must be at most %d characters", MaxCountryLength)}
		}
		b.OriginCountry = v
	}
	if attrs.Description != nil {
		v := strings.TrimSpace(*attrs.Description)
		if len(v) > MaxDescriptionLength {
			return &ValidationError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)}
		}
		b.Description = v
	}
	if attrs.AverageHeightCM != nil {
		v := *attrs.AverageHeightCM
		if v < MinHeightCM || v > MaxHeightCM {
			return &ValidationError{Field: "average_height_cm", Reason: fmt.Sprintf("must be between %d and %d", MinHeightCM, MaxHeightCM)}
		}
		b.AverageHeightCM = v
	}
	if attrs.AverageWeightKG != nil {
		v := *attrs.AverageWeightKG
		if v < MinWeightKG || v > MaxWeightKG {
			return &ValidationError{Field: "average_weight_kg", Reason: fmt.Sprintf("must be between %d and %d", MinWeightKG, MaxWeightKG)}
		}
		b.AverageWeightKG = v
	}
	if attrs.Temperament != nil {
		v := strings.TrimSpace(*attrs.Temperament)
		if len(v) > MaxTemperamentLength {
			return &ValidationError{Field: "temperament", Reason: fmt.Sprintf("must be at most %d characters", MaxTemperamentLength)}
		}
		b.Temperament = v
	}
	if attrs.PrimaryUse != nil {
		v := strings.TrimSpace(*attrs.PrimaryUse)
		if len(v) > MaxPrimaryUseLength {
			return &ValidationError{Field: "primary_use", Reason: fmt.Sprintf("must be at most %d characters", MaxPrimaryUseLength)}
		}
		b.PrimaryUse = v
	}
	return nil
}

func validateName(name string) error {
	if len(name) < MinNameLength {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at least %d characters", MinNameLength)}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}
	return nil
}

// ValidationError reports a field that violates a breed invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
