// Package memory holds in-process implementations of the selection
// repositories, used by tests and by dry runs of the batch runner.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"captionSelector/business/selection"
	"captionSelector/domain"
)

var (
	_ selection.CreatorRepository     = (*CreatorRepository)(nil)
	_ selection.CaptionRepository     = (*CaptionRepository)(nil)
	_ selection.StatsRepository       = (*StatsRepository)(nil)
	_ selection.RestrictionRepository = (*RestrictionRepository)(nil)
	_ selection.ConfigRepository      = (*ConfigRepository)(nil)
	_ selection.AssignmentLedger      = (*Ledger)(nil)
	_ selection.UsageCounter          = (*Ledger)(nil)
)

type Repositories struct {
	Creators     *CreatorRepository
	Captions     *CaptionRepository
	Stats        *StatsRepository
	Restrictions *RestrictionRepository
	Configs      *ConfigRepository
	Ledger       *Ledger
}

func NewRepositories() *Repositories {
	return &Repositories{
		Creators:     &CreatorRepository{rows: map[string]domain.Creator{}},
		Captions:     &CaptionRepository{},
		Stats:        &StatsRepository{rows: map[string]map[string]domain.BanditStats{}},
		Restrictions: &RestrictionRepository{rows: map[string][]domain.CreatorRestriction{}},
		Configs:      &ConfigRepository{rows: map[string]domain.SelectionConfig{}},
		Ledger:       &Ledger{},
	}
}

type CreatorRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.Creator
}

func (r *CreatorRepository) Put(c domain.Creator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.CreatorID] = c
}

func (r *CreatorRepository) GetCreator(ctx context.Context, creatorID string) (domain.Creator, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Creator{}, false, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rows[creatorID]
	return c, ok, nil
}

func (r *CreatorRepository) ListActive(ctx context.Context) ([]domain.Creator, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Creator, 0, len(r.rows))
	for _, c := range r.rows {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatorID < out[j].CreatorID })
	return out, nil
}

type CaptionRepository struct {
	mu   sync.RWMutex
	rows []domain.Caption
}

func (r *CaptionRepository) Add(captions ...domain.Caption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, captions...)
}

func (r *CaptionRepository) ListByPlatform(ctx context.Context, platform string) ([]domain.Caption, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Caption{}
	for _, c := range r.rows {
		if platform == "" || c.Platform == platform {
			out = append(out, c)
		}
	}
	return out, nil
}

type StatsRepository struct {
	mu sync.RWMutex
	// creator -> caption -> stats
	rows map[string]map[string]domain.BanditStats
}

func (r *StatsRepository) Put(st domain.BanditStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[st.CreatorID]
	if !ok {
		m = map[string]domain.BanditStats{}
		r.rows[st.CreatorID] = m
	}
	m[st.CaptionID] = st
}

func (r *StatsRepository) ListForCreator(ctx context.Context, creatorID string) ([]domain.BanditStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BanditStats, 0, len(r.rows[creatorID]))
	for _, st := range r.rows[creatorID] {
		out = append(out, st)
	}
	return out, nil
}

type RestrictionRepository struct {
	mu sync.RWMutex
	// every version per creator, oldest first
	rows map[string][]domain.CreatorRestriction
	seq  uint64
}

func (r *RestrictionRepository) GetActive(ctx context.Context, creatorID string) (domain.CreatorRestriction, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.CreatorRestriction{}, false, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.rows[creatorID] {
		if row.IsActive {
			return row, true, nil
		}
	}
	return domain.CreatorRestriction{}, false, nil
}

// Publish deactivates the current version and appends rec as the next one.
func (r *RestrictionRepository) Publish(ctx context.Context, rec domain.CreatorRestriction) (domain.CreatorRestriction, error) {
	if err := ctx.Err(); err != nil {
		return domain.CreatorRestriction{}, fmt.Errorf("context error: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	versions := r.rows[rec.CreatorID]
	next := 1
	for i := range versions {
		versions[i].IsActive = false
		if versions[i].Version >= next {
			next = versions[i].Version + 1
		}
	}
	r.seq++
	rec.ID = r.seq
	rec.Version = next
	rec.IsActive = true
	rec.CreatedAt = time.Now().UTC()
	r.rows[rec.CreatorID] = append(versions, rec)
	return rec, nil
}

type ConfigRepository struct {
	mu   sync.RWMutex
	rows map[string]domain.SelectionConfig
}

func (r *ConfigRepository) GetConfig(ctx context.Context, creatorID string) (domain.SelectionConfig, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.SelectionConfig{}, false, fmt.Errorf("context error: %w", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.rows[creatorID]
	return cfg, ok, nil
}

func (r *ConfigRepository) UpsertConfig(ctx context.Context, cfg domain.SelectionConfig) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg.UpdatedAt = time.Now().UTC()
	r.rows[cfg.CreatorID] = cfg
	return nil
}
