// Package memory provides an in-process implementation of the
// repository ports. It backs the service in development and tests and
// is the default store until a durable backend is wired in.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"herdbook-backend/internal/domain/breed"
	"herdbook-backend/internal/repository"
)

// BreedStore keeps breeds in a map guarded by a read-write mutex.
// Entities are copied on the way in and out so callers can never
// mutate stored state without going through Update.
type BreedStore struct {
	mu     sync.RWMutex
	breeds map[string]*breed.Breed
	byName map[string]string // lowercased name -> id
}

// NewBreedStore creates an empty store.
func NewBreedStore() *BreedStore {
	return &BreedStore{
		breeds: make(map[string]*breed.Breed),
		byName: make(map[string]string),
	}
}

var _ repository.BreedRepository = (*BreedStore)(nil)

func (s *BreedStore) Create(_ context.Context, b *breed.Breed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(b.Name)
	if _, exists := s.byName[key]; exists {
		return repository.ErrConflict{Resource: "breed", ID: b.Name, Reason: "name already registered"}
	}

	stored := *b
	s.breeds[b.ID] = &stored
	s.byName[key] = b.ID
	return nil
}

func (s *BreedStore) GetByID(_ context.Context, id string) (*breed.Breed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.breeds[id]
	if !ok {
		return nil, repository.ErrNotFound{Resource: "breed", ID: id}
	}
	out := *stored
	return &out, nil
}

func (s *BreedStore) GetByName(_ context.Context, name string) (*breed.Breed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return nil, repository.ErrNotFound{Resource: "breed", ID: name}
	}
	out := *s.breeds[id]
	return &out, nil
}

func (s *BreedStore) List(_ context.Context, q repository.BreedQuery) (*repository.BreedPage, error) {
	q = q.Normalize()
	search := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.RLock()
	matched := make([]*breed.Breed, 0, len(s.breeds))
	for _, stored := range s.breeds {
		if q.ActiveOnly && !stored.IsActive {
			continue
		}
		if search != "" && !matchesSearch(stored, search) {
			continue
		}
		out := *stored
		matched = append(matched, &out)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
	})

	total := len(matched)
	start := (q.Page - 1) * q.Size
	if start > total {
		start = total
	}
	end := start + q.Size
	if end > total {
		end = total
	}

	return &repository.BreedPage{
		Items: matched[start:end],
		Total: total,
		Page:  q.Page,
		Size:  q.Size,
	}, nil
}

func (s *BreedStore) Update(_ context.Context, b *breed.Breed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.breeds[b.ID]
	if !ok {
		return repository.ErrNotFound{Resource: "breed", ID: b.ID}
	}

	newKey := strings.ToLower(b.Name)
	oldKey := strings.ToLower(current.Name)
	if newKey != oldKey {
		if existingID, exists := s.byName[newKey]; exists && existingID != b.ID {
			return repository.ErrConflict{Resource: "breed", ID: b.Name, Reason: "name already registered"}
		}
		delete(s.byName, oldKey)
		s.byName[newKey] = b.ID
	}

	stored := *b
	s.breeds[b.ID] = &stored
	return nil
}

func matchesSearch(b *breed.Breed, search string) bool {
	return strings.Contains(strings.ToLower(b.Name), search) ||
		strings.Contains(strings.ToLower(b.OriginCountry), search) ||
		strings.Contains(strings.ToLower(b.PrimaryUse), search)
}

// Seed loads well-known breeds so a fresh instance has data to serve.
// Seeding is idempotent; breeds that already exist are skipped.
func (s *BreedStore) Seed(ctx context.Context) error {
	str := func(v string) *string { return &v }
	num := func(v float64) *float64 { return &v }

	samples := []breed.Attributes{
		{
			Name:            "Arabian",
			OriginCountry:   str("Arabian Peninsula"),
			Description:     str("One of the oldest horse breeds, known for endurance and a distinctive head shape."),
			AverageHeightCM: num(152),
			AverageWeightKG: num(450),
			Temperament:     str("Intelligent, willing, spirited"),
			PrimaryUse:      str("Endurance riding"),
		},
		{
			Name:            "Thoroughbred",
			OriginCountry:   str("England"),
			Description:     str("Bred for racing, combining speed with agility."),
			AverageHeightCM: num(163),
			AverageWeightKG: num(500),
			Temperament:     str("Hot-blooded, athletic"),
			PrimaryUse:      str("Racing"),
		},
		{
			Name:            "Clydesdale",
			OriginCountry:   str("Scotland"),
			Description:     str("A draught breed recognizable by its feathered legs and high-stepping gait."),
			AverageHeightCM: num(173),
			AverageWeightKG: num(900),
			Temperament:     str("Gentle, calm"),
			PrimaryUse:      str("Draught work"),
		},
	}

	for _, attrs := range samples {
		b, err := breed.New(attrs)
		if err != nil {
			return err
		}
		if err := s.Create(ctx, b); err != nil && !repository.IsConflict(err) {
			return err
		}
	}
	return nil
}
