//go:build !integration

package rest_test

import (
	"net/http"
	"testing"

	"captionSelector/business/selection"
	"captionSelector/domain"
	"captionSelector/internal/middleware"
	"captionSelector/internal/repository/memory"
	"captionSelector/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminEcho(t *testing.T) (*echo.Echo, *memory.Repositories) {
	t.Helper()
	repos := memory.NewRepositories()
	repos.Creators.Put(domain.Creator{CreatorID: "alpha", Platform: "onlyfans", IsActive: true})

	h := rest.NewAdminHandler(selection.NewAdminService(repos.Creators, repos.Restrictions, repos.Configs))
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.GET("/admin/restrictions/:creator_id", h.GetRestriction)
	e.PUT("/admin/restrictions/:creator_id", h.PublishRestriction)
	e.GET("/admin/selection-config/:creator_id", h.GetConfig)
	e.PUT("/admin/selection-config/:creator_id", h.UpsertConfig)
	return e, repos
}

func TestAdmin_RestrictionLifecycle(t *testing.T) {
	e, repos := newAdminEcho(t)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/admin/restrictions/alpha", "").Code)

	rec := do(e, http.MethodPut, "/admin/restrictions/alpha",
		`{"hard_patterns":["\\bfree\\b"],"restricted_categories":["explicit"],"scope":"PPV_ONLY","min_pool_per_tier":{"budget":10}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPut, "/admin/restrictions/alpha", `{"soft_patterns":["sale"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	active, ok, err := repos.Restrictions.GetActive(t.Context(), "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, active.Version)
	assert.Equal(t, domain.ScopeAll, active.Scope)
	assert.Empty(t, active.HardPatterns)

	rec = do(e, http.MethodGet, "/admin/restrictions/alpha", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":2`)
}

func TestAdmin_PublishRejectsInvalidRestriction(t *testing.T) {
	e, _ := newAdminEcho(t)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"bad pattern", "/admin/restrictions/alpha", `{"hard_patterns":["(unclosed"]}`},
		{"bad scope", "/admin/restrictions/alpha", `{"scope":"SOMETIMES"}`},
		{"bad tier", "/admin/restrictions/alpha", `{"restricted_price_tiers":["vip"]}`},
		{"unknown creator", "/admin/restrictions/ghost", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, tt.target, tt.body).Code)
		})
	}
}

func TestAdmin_SelectionConfig(t *testing.T) {
	e, repos := newAdminEcho(t)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/admin/selection-config/alpha", "").Code)

	rec := do(e, http.MethodPut, "/admin/selection-config/alpha", `{"cooldown_days":3,"max_per_category":10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cfg, ok, err := repos.Configs.GetConfig(t.Context(), "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", cfg.CreatorID)
	assert.Equal(t, 3, cfg.CooldownDays)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, "/admin/selection-config/alpha", `{"explore_width":2}`).Code)
}
