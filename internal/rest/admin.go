package rest

import (
	"context"
	"net/http"
	"time"

	"captionSelector/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type AdminService interface {
	GetRestriction(ctx context.Context, creatorID string) (domain.CreatorRestriction, error)
	PublishRestriction(ctx context.Context, r domain.CreatorRestriction) (domain.CreatorRestriction, error)
	GetConfig(ctx context.Context, creatorID string) (domain.SelectionConfig, error)
	UpsertConfig(ctx context.Context, cfg domain.SelectionConfig) error
}

type AdminHandler struct {
	adminService AdminService
	timeout      time.Duration
}

func NewAdminHandler(adminService AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		timeout:      10 * time.Second,
	}
}

type PublishRestrictionRequest struct {
	HardPatterns         []string                 `json:"hard_patterns"`
	SoftPatterns         []string                 `json:"soft_patterns"`
	RestrictedCategories []string                 `json:"restricted_categories"`
	RestrictedPriceTiers []string                 `json:"restricted_price_tiers"`
	Scope                domain.RestrictionScope  `json:"scope"`
	MinPoolPerTier       map[domain.PriceTier]int `json:"min_pool_per_tier"`
}

// GET /api/v1/admin/restrictions/:creator_id
func (h *AdminHandler) GetRestriction(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	r, err := h.adminService.GetRestriction(ctx, c.Param("creator_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(r))
}

// PUT /api/v1/admin/restrictions/:creator_id
// Publishes a new version and deactivates the previous one.
func (h *AdminHandler) PublishRestriction(c echo.Context) error {
	var body PublishRestrictionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}

	rec := domain.CreatorRestriction{
		CreatorID:            c.Param("creator_id"),
		HardPatterns:         datatypes.JSONSlice[string](orEmpty(body.HardPatterns)),
		SoftPatterns:         datatypes.JSONSlice[string](orEmpty(body.SoftPatterns)),
		RestrictedCategories: datatypes.JSONSlice[string](orEmpty(body.RestrictedCategories)),
		RestrictedPriceTiers: datatypes.JSONSlice[string](orEmpty(body.RestrictedPriceTiers)),
		Scope:                body.Scope,
		MinPoolPerTier:       datatypes.NewJSONType(body.MinPoolPerTier),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	saved, err := h.adminService.PublishRestriction(ctx, rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(saved))
}

// GET /api/v1/admin/selection-config/:creator_id
func (h *AdminHandler) GetConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cfg, err := h.adminService.GetConfig(ctx, c.Param("creator_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(cfg))
}

// PUT /api/v1/admin/selection-config/:creator_id
func (h *AdminHandler) UpsertConfig(c echo.Context) error {
	var body domain.SelectionConfig
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}
	body.CreatorID = c.Param("creator_id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.adminService.UpsertConfig(ctx, body); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(body))
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
