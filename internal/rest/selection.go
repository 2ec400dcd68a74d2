package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"
	"captionSelector/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type SelectionService interface {
	SelectCaptions(ctx context.Context, req domain.SelectionRequest) (domain.SelectionResult, error)
	RecentUsage(ctx context.Context, creatorID string, at time.Time) (selection.RecentUsage, error)
}

type SelectionHandler struct {
	selectionService SelectionService
	validator        *validator.Validate
	timeout          time.Duration
}

func NewSelectionHandler(selectionService SelectionService) *SelectionHandler {
	return &SelectionHandler{
		selectionService: selectionService,
		validator:        validator.New(),
		timeout:          15 * time.Second,
	}
}

type SelectCaptionsRequest struct {
	BehavioralSegment string            `json:"behavioral_segment" validate:"required"`
	Counts            domain.TierCounts `json:"counts"`
	TargetDate        string            `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
	ExcludeCaptionIDs []string          `json:"exclude_caption_ids" validate:"omitempty,dive,required"`
}

// POST /api/v1/creators/:creator_id/selections
func (h *SelectionHandler) SelectCaptions(c echo.Context) error {
	var body SelectCaptionsRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}
	if err := h.validator.Struct(body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	req := domain.SelectionRequest{
		CreatorID:         c.Param("creator_id"),
		BehavioralSegment: body.BehavioralSegment,
		Counts:            body.Counts,
		ExcludeCaptionIDs: body.ExcludeCaptionIDs,
	}
	if body.TargetDate != "" {
		// validated above
		req.TargetDate, _ = time.Parse(domain.DateLayout, body.TargetDate)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()
	ctx = selection.WithTraceID(ctx, c.Response().Header().Get(echo.HeaderXRequestID))

	result, err := h.selectionService.SelectCaptions(ctx, req)
	if err != nil {
		logger.Error("Failed to select captions", "creator_id", req.CreatorID, "error", err)
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(result))
}

// GET /api/v1/creators/:creator_id/recency?date=2026-03-10
func (h *SelectionHandler) GetRecency(c echo.Context) error {
	at := time.Now().UTC()
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid date"})
		}
		at = d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	usage, err := h.selectionService.RecentUsage(ctx, c.Param("creator_id"), at)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(usage.View()))
}

type TierPlanResponse struct {
	Segment domain.Segment    `json:"behavioral_segment"`
	Counts  domain.TierCounts `json:"counts"`
}

// GET /api/v1/plan?segment=Balanced&ppv=10&bump=4
func (h *SelectionHandler) PlanTiers(c echo.Context) error {
	seg, ok := domain.ParseSegment(c.QueryParam("segment"))
	if !ok {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "unknown segment"})
	}
	ppv, err := nonNegativeQuery(c, "ppv")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	bump, err := nonNegativeQuery(c, "bump")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(TierPlanResponse{
		Segment: seg,
		Counts:  selection.PlanTierCounts(seg, ppv, bump),
	}))
}

func nonNegativeQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}
