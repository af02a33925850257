package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ListingBank/internal/app/model"
	"github.com/sifan077/ListingBank/internal/app/repository"
	"github.com/sifan077/ListingBank/internal/app/service"
	"github.com/sifan077/ListingBank/internal/app/timebank"
	"github.com/sifan077/ListingBank/internal/http/middleware"
	"go.uber.org/zap"
)

const maxPromotionDays = 90

// ListingDeps groups dependencies required by listing handlers.
type ListingDeps struct {
	Logger         *zap.Logger
	ListingService service.ListingService
}

// ListingHandler implements the listing endpoints, including pause/resume.
type ListingHandler struct {
	logger         *zap.Logger
	listingService service.ListingService
}

// NewListingHandler creates a listing handler with the provided dependencies.
func NewListingHandler(deps ListingDeps) *ListingHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingHandler{
		logger:         logger,
		listingService: deps.ListingService,
	}
}

// Register wires listing routes onto an authenticated router.
func (h *ListingHandler) Register(router fiber.Router) {
	listings := router.Group("/listings")
	{
		listings.Post("/status", h.UpdateStatus)
		listings.Post("/", h.CreateListing)
		listings.Get("/", h.ListListings)
		listings.Get("/:id", h.GetListing)
		listings.Post("/:id/promote", h.PromoteListing)
	}
}

// ListingResponse is the JSON shape of a listing.
type ListingResponse struct {
	ID                         string     `json:"id"`
	UserID                     string     `json:"user_id"`
	Title                      string     `json:"title"`
	Description                string     `json:"description"`
	ExpiresAt                  *time.Time `json:"expires_at"`
	PromotionStartAt           *time.Time `json:"promotion_start_at"`
	PromotionEndAt             *time.Time `json:"promotion_end_at"`
	IsPaused                   bool       `json:"is_paused"`
	PausedAt                   *time.Time `json:"paused_at"`
	RemainingExpiresAtDuration *string    `json:"remaining_expires_at_duration"`
	RemainingPromotionDuration *string    `json:"remaining_promotion_duration"`
	CreatedAt                  time.Time  `json:"created_at"`
}

func toListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:                         l.ID,
		UserID:                     l.UserID,
		Title:                      l.Title,
		Description:                l.Description,
		ExpiresAt:                  l.ExpiresAt,
		PromotionStartAt:           l.PromotionStartAt,
		PromotionEndAt:             l.PromotionEndAt,
		IsPaused:                   l.IsPaused,
		PausedAt:                   l.PausedAt,
		RemainingExpiresAtDuration: l.RemainingExpiresAtDuration,
		RemainingPromotionDuration: l.RemainingPromotionDuration,
		CreatedAt:                  l.CreatedAt,
	}
}

// StatusRequest is the pause/resume request body.
type StatusRequest struct {
	ListingID string `json:"listingId"`
	Action    string `json:"action"`
}

// UpdateStatus handles POST /api/listings/status
func (h *ListingHandler) UpdateStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.ListingID == "" || req.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "listingId and action are required",
		})
	}

	userID := middleware.UserID(c)
	res, err := h.listingService.ApplyStatusAction(userContext(c), userID, req.ListingID, req.Action)
	if err != nil {
		h.logger.Warn("listing status action failed",
			zap.String("listing_id", req.ListingID),
			zap.String("action", req.Action),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return h.statusActionError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": statusMessage(res),
	})
}

func (h *ListingHandler) statusActionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	message := "failed to update listing status"

	var actionErr *service.ActionError
	switch {
	case errors.Is(err, service.ErrForbidden):
		status = fiber.StatusForbidden
		message = "you do not own this listing"
	case errors.Is(err, repository.ErrListingNotFound):
		status = fiber.StatusNotFound
		message = "listing not found"
	case errors.Is(err, service.ErrInvalidAction):
		message = "action must be either pause or resume"
	case errors.As(err, &actionErr):
		message = fmt.Sprintf("Failed to %s listing: %v", actionErr.Action, actionErr.Err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func statusMessage(res *service.StatusActionResult) string {
	switch {
	case res.Action == timebank.ActionPause && res.Applied:
		return "Listing paused successfully"
	case res.Action == timebank.ActionPause:
		return "Listing is already paused"
	case res.Applied:
		return "Listing resumed successfully"
	default:
		return "Listing is not paused"
	}
}

// CreateListingRequest represents the request body for publishing a listing.
type CreateListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateListing handles POST /api/listings
func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	var req CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	listing, err := h.listingService.CreateListing(userContext(c), service.CreateListingInput{
		UserID:      middleware.UserID(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "title is required",
			})
		}
		h.logger.Error("failed to create listing", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create listing",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toListingResponse(listing))
}

// ListListings handles GET /api/listings and returns the caller's listings
func (h *ListingHandler) ListListings(c *fiber.Ctx) error {
	limit := 20
	offset := 0

	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	if parsed := c.QueryInt("offset"); parsed >= 0 {
		offset = parsed
	}

	listings, err := h.listingService.ListListings(userContext(c), middleware.UserID(c), limit, offset)
	if err != nil {
		h.logger.Error("failed to list listings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list listings",
		})
	}

	response := make([]ListingResponse, len(listings))
	for i := range listings {
		response[i] = toListingResponse(&listings[i])
	}

	return c.JSON(fiber.Map{
		"listings": response,
		"limit":    limit,
		"offset":   offset,
		"count":    len(response),
	})
}

// GetListing handles GET /api/listings/:id
func (h *ListingHandler) GetListing(c *fiber.Ctx) error {
	id := c.Params("id")

	listing, err := h.listingService.GetListing(userContext(c), id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "listing not found",
			})
		}
		h.logger.Error("failed to get listing", zap.Error(err), zap.String("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load listing",
		})
	}

	return c.JSON(toListingResponse(listing))
}

// PromoteRequest represents the request body for promoting a listing.
type PromoteRequest struct {
	Days int `json:"days"`
}

// PromoteListing handles POST /api/listings/:id/promote
func (h *ListingHandler) PromoteListing(c *fiber.Ctx) error {
	id := c.Params("id")

	var req PromoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Days <= 0 || req.Days > maxPromotionDays {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("days must be between 1 and %d", maxPromotionDays),
		})
	}

	listing, err := h.listingService.PromoteListing(userContext(c), middleware.UserID(c), id, time.Duration(req.Days)*timebank.Day)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not own this listing"})
		case errors.Is(err, repository.ErrListingNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "listing not found"})
		case errors.Is(err, service.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paused listings cannot be promoted"})
		}
		h.logger.Error("failed to promote listing", zap.Error(err), zap.String("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to promote listing",
		})
	}

	return c.JSON(toListingResponse(listing))
}

func userContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
