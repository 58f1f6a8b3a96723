package rates

import (
	"context"
	"testing"
	"time"

	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"
	"metallix-backend/internal/infrastructure/cache"
	"metallix-backend/internal/pkg/apperror"
	"metallix-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var admin = auth.Caller{UserID: uuid.New(), Role: domain.RoleAdmin}

func setupRates(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.OpenDB(t)
	return &Service{DB: db}, db
}

func historyCount(t *testing.T, db *gorm.DB, metalID uuid.UUID) int64 {
	var n int64
	require.NoError(t, db.Model(&domain.RateHistory{}).Where("metal_id = ?", metalID).Count(&n).Error)
	return n
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) domain.Metal {
	var m domain.Metal
	require.NoError(t, db.First(&m, "id = ?", id).Error)
	return m
}

func TestCurrentRate(t *testing.T) {
	svc, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)

	rate, err := svc.CurrentRate(context.Background(), gold.ID)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(180000)))

	_, err = svc.CurrentRate(context.Background(), uuid.New())
	assert.Equal(t, ErrMetalNotFound, err)

	testutil.Deactivate(t, db, gold.ID)
	_, err = svc.CurrentRate(context.Background(), gold.ID)
	assert.Equal(t, ErrMetalNotFound, err)
}

func TestUpdateRates_RoundTrip(t *testing.T) {
	svc, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)
	silver := testutil.SeedMetal(t, db, "Silver", "AG", 2200)

	entries, err := svc.UpdateRates(context.Background(), admin, []RateUpdate{
		{MetalID: gold.ID, NewRate: decimal.NewFromInt(190000)},
		{MetalID: silver.ID, NewRate: decimal.RequireFromString("2250.5")},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, reload(t, db, gold.ID).CurrentRate.Equal(decimal.NewFromInt(190000)))
	assert.True(t, reload(t, db, silver.ID).CurrentRate.Equal(decimal.RequireFromString("2250.5")))
	assert.Equal(t, int64(1), historyCount(t, db, gold.ID))
	assert.Equal(t, int64(1), historyCount(t, db, silver.ID))

	var h domain.RateHistory
	require.NoError(t, db.Where("metal_id = ?", gold.ID).First(&h).Error)
	assert.True(t, h.Rate.Equal(decimal.NewFromInt(190000)))

	var events int64
	require.NoError(t, db.Model(&domain.LedgerEvent{}).Where("event_type = ?", domain.EventRatesUpdated).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestUpdateRates_InvalidEntryRejectsWholeBatch(t *testing.T) {
	svc, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)
	silver := testutil.SeedMetal(t, db, "Silver", "AG", 2200)

	for _, bad := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5), decimal.RequireFromString("1.00001")} {
		_, err := svc.UpdateRates(context.Background(), admin, []RateUpdate{
			{MetalID: gold.ID, NewRate: decimal.NewFromInt(190000)},
			{MetalID: silver.ID, NewRate: bad},
		})
		assert.True(t, apperror.Is(err, apperror.KindValidation), "rate %s", bad)
	}

	assert.True(t, reload(t, db, gold.ID).CurrentRate.Equal(decimal.NewFromInt(180000)))
	assert.True(t, reload(t, db, silver.ID).CurrentRate.Equal(decimal.NewFromInt(2200)))
	assert.Zero(t, historyCount(t, db, gold.ID))
	assert.Zero(t, historyCount(t, db, silver.ID))
}

func TestUpdateRates_UnknownMetalRollsBack(t *testing.T) {
	svc, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)

	_, err := svc.UpdateRates(context.Background(), admin, []RateUpdate{
		{MetalID: gold.ID, NewRate: decimal.NewFromInt(190000)},
		{MetalID: uuid.New(), NewRate: decimal.NewFromInt(10)},
	})
	assert.Equal(t, ErrMetalNotFound, err)

	assert.True(t, reload(t, db, gold.ID).CurrentRate.Equal(decimal.NewFromInt(180000)))
	assert.Zero(t, historyCount(t, db, gold.ID))
}

func TestUpdateRates_BatchShape(t *testing.T) {
	svc, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)
	ctx := context.Background()

	_, err := svc.UpdateRates(ctx, admin, nil)
	assert.Equal(t, ErrEmptyBatch, err)

	_, err = svc.UpdateRates(ctx, admin, []RateUpdate{{NewRate: decimal.NewFromInt(1)}})
	assert.Equal(t, ErrMissingMetalID, err)

	_, err = svc.UpdateRates(ctx, admin, []RateUpdate{
		{MetalID: gold.ID, NewRate: decimal.NewFromInt(1)},
		{MetalID: gold.ID, NewRate: decimal.NewFromInt(2)},
	})
	assert.Equal(t, ErrDuplicateMetal, err)
	assert.Zero(t, historyCount(t, db, gold.ID))
}

func TestUpdateRates_RequiresAdmin(t *testing.T) {
	svc, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)

	user := auth.Caller{UserID: uuid.New(), Role: domain.RoleUser}
	_, err := svc.UpdateRates(context.Background(), user, []RateUpdate{{MetalID: gold.ID, NewRate: decimal.NewFromInt(1)}})
	assert.Equal(t, ErrForbidden, err)
	assert.True(t, reload(t, db, gold.ID).CurrentRate.Equal(decimal.NewFromInt(180000)))
}

func TestHistory_NewestFirstAndBounded(t *testing.T) {
	svc, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 100)

	base := time.Now()
	step := 0
	svc.Now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	for i := 1; i <= 5; i++ {
		_, err := svc.UpdateRates(context.Background(), admin, []RateUpdate{{MetalID: gold.ID, NewRate: decimal.NewFromInt(int64(100 + i))}})
		require.NoError(t, err)
	}

	got, err := svc.CollectHistory(context.Background(), gold.ID, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Rate.Equal(decimal.NewFromInt(105)))
	assert.True(t, got[1].Rate.Equal(decimal.NewFromInt(104)))
	assert.True(t, got[2].Rate.Equal(decimal.NewFromInt(103)))

	// The sequence can be ranged again and stops early on break.
	seq := svc.History(context.Background(), gold.ID, 0)
	first := 0
	for range seq {
		first++
	}
	assert.Equal(t, 5, first)
	again := 0
	for _, err := range seq {
		require.NoError(t, err)
		again++
		if again == 2 {
			break
		}
	}
	assert.Equal(t, 2, again)

	// Latest history row matches the current rate.
	assert.True(t, reload(t, db, gold.ID).CurrentRate.Equal(got[0].Rate))
}

func TestListMetals_CachedUntilRatesChange(t *testing.T) {
	db := testutil.OpenDB(t)
	rdb, mr := testutil.OpenRedis(t)
	svc := &Service{DB: db, Cache: &cache.JSON{Rdb: rdb, TTL: time.Minute}}
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)
	copper := testutil.SeedMetal(t, db, "Copper", "CU", 1800)
	testutil.Deactivate(t, db, copper.ID)
	ctx := context.Background()

	metals, err := svc.ListMetals(ctx, 0)
	require.NoError(t, err)
	require.Len(t, metals, 1)
	assert.Equal(t, "AU", metals[0].Symbol)
	assert.True(t, mr.Exists(metalsListingKey(0)))

	_, err = svc.UpdateRates(ctx, admin, []RateUpdate{{MetalID: gold.ID, NewRate: decimal.NewFromInt(190000)}})
	require.NoError(t, err)
	version, err := mr.Get(metalsVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "1", version)

	metals, err = svc.ListMetals(ctx, 0)
	require.NoError(t, err)
	require.Len(t, metals, 1)
	assert.True(t, metals[0].CurrentRate.Equal(decimal.NewFromInt(190000)))
	require.Len(t, metals[0].RateHistory, 1)

	cached, err := svc.ListMetals(ctx, 0)
	require.NoError(t, err)
	assert.True(t, cached[0].CurrentRate.Equal(decimal.NewFromInt(190000)))
}

func TestListMetals_UpdateDuringReadIsNotCached(t *testing.T) {
	db := testutil.OpenDB(t)
	rdb, mr := testutil.OpenRedis(t)
	svc := &Service{DB: db, Cache: &cache.JSON{Rdb: rdb, TTL: time.Minute}}
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)
	ctx := context.Background()

	// Commit a rate change after the listing has read metals but before it is cached.
	fired := false
	var updateErr error
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:rate_update_mid_listing", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "metals" {
			return
		}
		fired = true
		_, updateErr = svc.UpdateRates(ctx, admin, []RateUpdate{{MetalID: gold.ID, NewRate: decimal.NewFromInt(190000)}})
	}))

	stale, err := svc.ListMetals(ctx, 0)
	require.NoError(t, err)
	require.True(t, fired)
	require.NoError(t, updateErr)
	require.Len(t, stale, 1)
	assert.True(t, stale[0].CurrentRate.Equal(decimal.NewFromInt(180000)))
	assert.True(t, reload(t, db, gold.ID).CurrentRate.Equal(decimal.NewFromInt(190000)))

	// The stale snapshot is parked under the old generation only.
	assert.True(t, mr.Exists(metalsListingKey(0)))
	assert.False(t, mr.Exists(metalsListingKey(1)))

	fresh, err := svc.ListMetals(ctx, 0)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.True(t, fresh[0].CurrentRate.Equal(decimal.NewFromInt(190000)))
	assert.True(t, mr.Exists(metalsListingKey(1)))
}

func TestLiveRates(t *testing.T) {
	_, db := setupRates(t)
	gold := testutil.SeedMetal(t, db, "Gold", "AU", 180000)

	got, err := LiveRates(db, []uuid.UUID{gold.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[gold.ID].Equal(decimal.NewFromInt(180000)))
}
