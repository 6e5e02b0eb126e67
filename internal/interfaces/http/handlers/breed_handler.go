// Package handlers contains the HTTP handlers for the breed registry
// and its monitoring surface.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"herdbook-backend/internal/domain/breed"
	"herdbook-backend/internal/logging"
	"herdbook-backend/internal/repository"
	breedservice "herdbook-backend/internal/service/breed"
	"herdbook-backend/pkg/api"
	apperrors "herdbook-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// BreedHandler serves the /api/v1/breeds resource.
type BreedHandler struct {
	service  *breedservice.Service
	logger   *logging.Logger
	validate *validator.Validate
}

// NewBreedHandler creates a breed handler.
func NewBreedHandler(service *breedservice.Service, logger *logging.Logger) *BreedHandler {
	return &BreedHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the breed routes on the router.
func (h *BreedHandler) RegisterRoutes(r chi.Router) {
	r.Route("/breeds", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{breedID}", h.Get)
		r.Put("/{breedID}", h.Update)
		r.Delete("/{breedID}", h.Delete)
	})
}

// CreateBreedRequest is the create payload.
type CreateBreedRequest struct {
	Name            string   `json:"name" validate:"required,min=2,max=100"`
	OriginCountry   *string  `json:"origin_country" validate:"omitempty,max=100"`
	Description     *string  `json:"description" validate:"omitempty,max=1000"`
	AverageHeightCM *float64 `json:"average_height_cm" validate:"omitempty,gte=50,lte=250"`
	AverageWeightKG *float64 `json:"average_weight_kg" validate:"omitempty,gte=200,lte=1500"`
	Temperament     *string  `json:"temperament" validate:"omitempty,max=200"`
	PrimaryUse      *string  `json:"primary_use" validate:"omitempty,max=100"`
}

// UpdateBreedRequest is the update payload; absent fields are left
// unchanged.
type UpdateBreedRequest struct {
	Name            *string  `json:"name" validate:"omitempty,min=2,max=100"`
	OriginCountry   *string  `json:"origin_country" validate:"omitempty,max=100"`
	Description     *string  `json:"description" validate:"omitempty,max=1000"`
	AverageHeightCM *float64 `json:"average_height_cm" validate:"omitempty,gte=50,lte=250"`
	AverageWeightKG *float64 `json:"average_weight_kg" validate:"omitempty,gte=200,lte=1500"`
	Temperament     *string  `json:"temperament" validate:"omitempty,max=200"`
	PrimaryUse      *string  `json:"primary_use" validate:"omitempty,max=100"`
}

// BreedListResponse is one page of breeds.
type BreedListResponse struct {
	Items []*breed.Breed `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Pages int            `json:"pages"`
}

// Create handles POST /breeds.
func (h *BreedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBreedRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	b, err := h.service.Create(r.Context(), breed.Attributes{
		Name:            req.Name,
		OriginCountry:   req.OriginCountry,
		Description:     req.Description,
		AverageHeightCM: req.AverageHeightCM,
		AverageWeightKG: req.AverageWeightKG,
		Temperament:     req.Temperament,
		PrimaryUse:      req.PrimaryUse,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, b)
}

// Get handles GET /breeds/{breedID}.
func (h *BreedHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "breedID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, b)
}

// List handles GET /breeds with pagination and search.
func (h *BreedHandler) List(w http.ResponseWriter, r *http.Request) {
	query := repository.BreedQuery{
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: true,
	}
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			h.writeError(w, r, apperrors.NewValidation("page must be a positive integer", "page"))
			return
		}
		query.Page = page
	}
	if v := r.URL.Query().Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > repository.MaxPageSize {
			h.writeError(w, r, apperrors.NewValidation(
				fmt.Sprintf("size must be between 1 and %d", repository.MaxPageSize), "size"))
			return
		}
		query.Size = size
	}
	if v := r.URL.Query().Get("active_only"); v != "" {
		activeOnly, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, r, apperrors.NewValidation("active_only must be a boolean", "active_only"))
			return
		}
		query.ActiveOnly = activeOnly
	}

	page, err := h.service.List(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pages := 0
	if page.Size > 0 {
		pages = (page.Total + page.Size - 1) / page.Size
	}
	api.Success(w, http.StatusOK, BreedListResponse{
		Items: page.Items,
		Total: page.Total,
		Page:  page.Page,
		Size:  page.Size,
		Pages: pages,
	})
}

// Update handles PUT /breeds/{breedID}.
func (h *BreedHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateBreedRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	attrs := breed.Attributes{
		OriginCountry:   req.OriginCountry,
		Description:     req.Description,
		AverageHeightCM: req.AverageHeightCM,
		AverageWeightKG: req.AverageWeightKG,
		Temperament:     req.Temperament,
		PrimaryUse:      req.PrimaryUse,
	}
	if req.Name != nil {
		attrs.Name = *req.Name
	}

	b, err := h.service.Update(r.Context(), chi.URLParam(r, "breedID"), attrs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, b)
}

// Delete handles DELETE /breeds/{breedID}. The breed is deactivated,
// not removed.
func (h *BreedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "breedID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	api.NoContent(w)
}

// decode parses and validates a JSON request body. Malformed JSON and
// constraint violations both surface as schema validation errors so
// clients get one consistent 422 shape.
func (h *BreedHandler) decode(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperrors.NewSchemaValidation("Request validation failed", map[string]any{
			"body": err.Error(),
		})
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]any, len(fieldErrs))
			for _, fe := range fieldErrs {
				details[fe.Field()] = fmt.Sprintf("failed on '%s' constraint", fe.Tag())
			}
			return apperrors.NewSchemaValidation("Request validation failed", details)
		}
		return apperrors.NewSchemaValidation("Request validation failed", map[string]any{
			"body": err.Error(),
		})
	}
	return nil
}

func (h *BreedHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	requestID := logging.RequestIDFromContext(ctx)
	envelope := api.Error(w, requestID, err)

	fields := logging.Fields{
		"error_code": envelope.ErrorCode,
		"path":       r.URL.Path,
		"method":     r.Method,
	}
	if apperrors.IsServerFault(err) {
		h.logger.Error(ctx, "Request error", err, fields)
	} else {
		h.logger.Warn(ctx, "Request rejected", fields)
	}
}
