package rates

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"metallix-backend/internal/application/ledgerevents"
	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"
	"metallix-backend/internal/infrastructure/cache"
	"metallix-backend/internal/infrastructure/database"
	"metallix-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultHistoryLimit bounds history reads when the caller passes no limit.
const DefaultHistoryLimit = 30

const (
	// metalsCacheKey prefixes the public listing for the default history limit.
	metalsCacheKey = "metals:active"
	// metalsVersionKey is bumped after every committed rate change.
	metalsVersionKey = "metals:version"
)

func metalsListingKey(version int64) string {
	return fmt.Sprintf("%s:v%d", metalsCacheKey, version)
}

// Service is the rate store: current rate per metal plus its append-only history.
type Service struct {
	DB           *gorm.DB
	Tx           *database.Coordinator
	Cache        *cache.JSON
	HistoryLimit int
	Now          func() time.Time
}

// RateUpdate is one entry of a batch rate change.
type RateUpdate struct {
	MetalID uuid.UUID       `json:"metalId"`
	NewRate decimal.Decimal `json:"newRate"`
}

func (s *Service) coordinator() *database.Coordinator {
	if s.Tx != nil {
		return s.Tx
	}
	return &database.Coordinator{DB: s.DB}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) historyLimit(limit int) int {
	if limit > 0 {
		return limit
	}
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return DefaultHistoryLimit
}

// CurrentRate returns the tradable rate of an active metal.
func (s *Service) CurrentRate(ctx context.Context, metalID uuid.UUID) (decimal.Decimal, error) {
	m, err := FindActiveMetal(s.DB.WithContext(ctx), metalID)
	if err != nil {
		return decimal.Zero, err
	}
	return m.CurrentRate, nil
}

// FindActiveMetal loads an active metal through db, which may be a transaction.
func FindActiveMetal(db *gorm.DB, metalID uuid.UUID) (*domain.Metal, error) {
	var m domain.Metal
	if err := db.Where("id = ? AND is_active = ?", metalID, true).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetalNotFound
		}
		return nil, apperror.Storage(err)
	}
	return &m, nil
}

// ValidateBatch checks a batch without touching the store. Any bad entry rejects all of it.
func ValidateBatch(batch []RateUpdate) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}
	seen := make(map[uuid.UUID]struct{}, len(batch))
	for _, u := range batch {
		if u.MetalID == uuid.Nil {
			return ErrMissingMetalID
		}
		if !u.NewRate.IsPositive() {
			return ErrInvalidRate
		}
		if !domain.FitsScale(u.NewRate) {
			return ErrRatePrecision
		}
		if _, dup := seen[u.MetalID]; dup {
			return ErrDuplicateMetal
		}
		seen[u.MetalID] = struct{}{}
	}
	return nil
}

// UpdateRates reprices every metal in batch and appends one history row per entry,
// all in one unit. This is the only code path that writes metals.current_rate.
func (s *Service) UpdateRates(ctx context.Context, actor auth.Caller, batch []RateUpdate) ([]domain.RateHistory, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := ValidateBatch(batch); err != nil {
		return nil, err
	}

	at := s.now()
	entries := make([]domain.RateHistory, 0, len(batch))
	err := s.coordinator().Do(ctx, func(tx *gorm.DB) error {
		for _, u := range batch {
			res := tx.Model(&domain.Metal{}).
				Where("id = ? AND is_active = ?", u.MetalID, true).
				Updates(map[string]interface{}{"current_rate": u.NewRate, "updated_at": at})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrMetalNotFound
			}
			h := domain.RateHistory{MetalID: u.MetalID, Rate: u.NewRate, Date: at}
			if err := tx.Create(&h).Error; err != nil {
				return err
			}
			entries = append(entries, h)
		}
		return ledgerevents.Record(tx, ledgerevents.EntityMetal, nil, domain.EventRatesUpdated, actor, batch)
	})
	if err != nil {
		return nil, err
	}
	s.Cache.Bump(ctx, metalsVersionKey)
	return entries, nil
}

// History yields up to limit history rows of a metal, newest first. Each range
// over the returned sequence runs a fresh query, so it can be consumed again.
func (s *Service) History(ctx context.Context, metalID uuid.UUID, limit int) iter.Seq2[domain.RateHistory, error] {
	limit = s.historyLimit(limit)
	return func(yield func(domain.RateHistory, error) bool) {
		rows, err := s.DB.WithContext(ctx).
			Model(&domain.RateHistory{}).
			Where("metal_id = ?", metalID).
			Order("date DESC").
			Limit(limit).
			Rows()
		if err != nil {
			yield(domain.RateHistory{}, apperror.Storage(err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var h domain.RateHistory
			if err := s.DB.ScanRows(rows, &h); err != nil {
				yield(domain.RateHistory{}, apperror.Storage(err))
				return
			}
			if !yield(h, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.RateHistory{}, apperror.Storage(err))
		}
	}
}

// CollectHistory drains History into a slice.
func (s *Service) CollectHistory(ctx context.Context, metalID uuid.UUID, limit int) ([]domain.RateHistory, error) {
	out := []domain.RateHistory{}
	for h, err := range s.History(ctx, metalID, limit) {
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// ListMetals returns active metals, each with its most recent history rows.
// The default-limit listing is served from cache when available. The cache key
// carries the rate version read before the query, so a snapshot taken before a
// rate update can only land under a generation that is no longer read.
func (s *Service) ListMetals(ctx context.Context, historyLimit int) ([]domain.Metal, error) {
	limit := s.historyLimit(historyLimit)

	var metals []domain.Metal
	var key string
	if limit == s.historyLimit(0) {
		if v, ok := s.Cache.Version(ctx, metalsVersionKey); ok {
			key = metalsListingKey(v)
			if s.Cache.Get(ctx, key, &metals) {
				return metals, nil
			}
		}
	}

	if err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&metals).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	for i := range metals {
		history, err := s.CollectHistory(ctx, metals[i].ID, limit)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", metals[i].Symbol, err)
		}
		metals[i].RateHistory = history
	}
	if metals == nil {
		metals = []domain.Metal{}
	}
	if key != "" {
		s.Cache.Set(ctx, key, metals)
	}
	return metals, nil
}

// LiveRates returns current rates keyed by metal id for the given metals (active or not).
func LiveRates(db *gorm.DB, metalIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(metalIDs))
	if len(metalIDs) == 0 {
		return out, nil
	}
	var metals []domain.Metal
	if err := db.Select("id", "current_rate").Where("id IN ?", metalIDs).Find(&metals).Error; err != nil {
		return nil, apperror.Storage(err)
	}
	for _, m := range metals {
		out[m.ID] = m.CurrentRate
	}
	return out, nil
}
