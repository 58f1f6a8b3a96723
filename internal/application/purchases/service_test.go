package purchases

import (
	"context"
	"errors"
	"sync"
	"testing"

	"metallix-backend/internal/application/rates"
	"metallix-backend/internal/auth"
	"metallix-backend/internal/domain"
	"metallix-backend/internal/pkg/apperror"
	"metallix-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	rates *rates.Service
	gold  domain.Metal
	buyer auth.Caller
	admin auth.Caller
}

func setup(t *testing.T) fixture {
	db := testutil.OpenDB(t)
	buyer := testutil.SeedUser(t, db, domain.RoleUser)
	admin := testutil.SeedUser(t, db, domain.RoleAdmin)
	return fixture{
		db:    db,
		svc:   &Service{DB: db},
		rates: &rates.Service{DB: db},
		gold:  testutil.SeedMetal(t, db, "Gold", "AU", 180000),
		buyer: auth.Caller{UserID: buyer.ID, Role: buyer.Role},
		admin: auth.Caller{UserID: admin.ID, Role: admin.Role},
	}
}

func (f fixture) buy(t *testing.T, qty string) *domain.Purchase {
	t.Helper()
	p, err := f.svc.CreatePurchase(context.Background(), f.buyer, CreateInput{
		MetalID:       f.gold.ID,
		Quantity:      decimal.RequireFromString(qty),
		PaymentMethod: domain.MethodCash,
	})
	require.NoError(t, err)
	return p
}

func TestCreatePurchase_SnapshotsRate(t *testing.T) {
	f := setup(t)
	p := f.buy(t, "2")

	assert.Equal(t, domain.PurchaseActive, p.Status)
	assert.True(t, p.BuyPrice.Equal(decimal.NewFromInt(180000)))
	assert.True(t, p.CurrentPrice.Equal(decimal.NewFromInt(180000)))
	require.NotNil(t, p.Metal)
	assert.Equal(t, "AU", p.Metal.Symbol)
	require.NotNil(t, p.Payment)
	assert.Equal(t, domain.PaymentPending, p.Payment.Status)
	assert.True(t, p.Payment.Amount.Equal(decimal.NewFromInt(360000)))
	assert.Nil(t, p.Payment.PaidAt)

	var stored domain.Payment
	require.NoError(t, f.db.Where("purchase_id = ?", p.ID).First(&stored).Error)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(360000)))

	var events int64
	require.NoError(t, f.db.Model(&domain.LedgerEvent{}).Where("entity_id = ? AND event_type = ?", p.ID, domain.EventPurchaseCreated).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestCreatePurchase_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"zero quantity", CreateInput{MetalID: f.gold.ID, Quantity: decimal.Zero, PaymentMethod: domain.MethodCash}, ErrInvalidQuantity},
		{"negative quantity", CreateInput{MetalID: f.gold.ID, Quantity: decimal.NewFromInt(-1), PaymentMethod: domain.MethodCash}, ErrInvalidQuantity},
		{"too precise", CreateInput{MetalID: f.gold.ID, Quantity: decimal.RequireFromString("0.00001"), PaymentMethod: domain.MethodCash}, ErrQuantityPrecision},
		{"bad method", CreateInput{MetalID: f.gold.ID, Quantity: decimal.NewFromInt(1), PaymentMethod: "CRYPTO"}, ErrInvalidMethod},
		{"no metal", CreateInput{Quantity: decimal.NewFromInt(1), PaymentMethod: domain.MethodCash}, ErrMissingMetalID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreatePurchase(ctx, f.buyer, tc.in)
			assert.Equal(t, tc.want, err)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
		})
	}

	var n int64
	require.NoError(t, f.db.Model(&domain.Purchase{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreatePurchase_InactiveMetal(t *testing.T) {
	f := setup(t)
	testutil.Deactivate(t, f.db, f.gold.ID)

	_, err := f.svc.CreatePurchase(context.Background(), f.buyer, CreateInput{
		MetalID: f.gold.ID, Quantity: decimal.NewFromInt(1), PaymentMethod: domain.MethodBank,
	})
	assert.Equal(t, rates.ErrMetalNotFound, err)

	var n int64
	require.NoError(t, f.db.Model(&domain.Payment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestListPurchases_ProfitLossAtLiveRate(t *testing.T) {
	f := setup(t)
	f.buy(t, "2")

	_, err := f.rates.UpdateRates(context.Background(), f.admin, []rates.RateUpdate{
		{MetalID: f.gold.ID, NewRate: decimal.NewFromInt(190000)},
	})
	require.NoError(t, err)

	list, err := f.svc.ListPurchases(context.Background(), f.buyer)
	require.NoError(t, err)
	require.Len(t, list, 1)

	pos := list[0]
	assert.True(t, pos.BuyPrice.Equal(decimal.NewFromInt(180000)))
	assert.True(t, pos.CurrentPrice.Equal(decimal.NewFromInt(190000)))
	assert.True(t, pos.ProfitLoss.Equal(decimal.NewFromInt(20000)))
	require.NotNil(t, pos.ProfitLossPercentage)
	assert.Equal(t, "5.56", pos.ProfitLossPercentage.String())
	require.NotNil(t, pos.Payment)
	assert.True(t, pos.Payment.Amount.Equal(decimal.NewFromInt(360000)))
}

func TestListPurchases_NewestFirstAndScoped(t *testing.T) {
	f := setup(t)
	first := f.buy(t, "1")
	testutil.Tick()
	second := f.buy(t, "3")

	other := testutil.SeedUser(t, f.db, domain.RoleUser)
	list, err := f.svc.ListPurchases(context.Background(), auth.Caller{UserID: other.ID, Role: other.Role})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.ListPurchases(context.Background(), f.buyer)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestBuyPriceIsCreateOnly(t *testing.T) {
	f := setup(t)
	p := f.buy(t, "1")

	var loaded domain.Purchase
	require.NoError(t, f.db.First(&loaded, "id = ?", p.ID).Error)
	loaded.BuyPrice = decimal.NewFromInt(1)
	loaded.Quantity = decimal.NewFromInt(99)
	require.NoError(t, f.db.Save(&loaded).Error)

	var reloaded domain.Purchase
	require.NoError(t, f.db.First(&reloaded, "id = ?", p.ID).Error)
	assert.True(t, reloaded.BuyPrice.Equal(decimal.NewFromInt(180000)))
	assert.True(t, reloaded.Quantity.Equal(decimal.NewFromInt(1)))
}

func TestSellPurchase(t *testing.T) {
	f := setup(t)
	p := f.buy(t, "1")
	ctx := context.Background()

	stranger := testutil.SeedUser(t, f.db, domain.RoleUser)
	_, err := f.svc.SellPurchase(ctx, auth.Caller{UserID: stranger.ID, Role: stranger.Role}, p.ID)
	assert.Equal(t, ErrPurchaseNotFound, err)

	_, err = f.svc.SellPurchase(ctx, f.buyer, uuid.New())
	assert.Equal(t, ErrPurchaseNotFound, err)

	sold, err := f.svc.SellPurchase(ctx, f.buyer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseSold, sold.Status)
	assert.NotNil(t, sold.SoldAt)
	require.NotNil(t, sold.Metal)

	_, err = f.svc.SellPurchase(ctx, f.buyer, p.ID)
	assert.Equal(t, ErrAlreadySold, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	got, err := f.svc.GetPurchase(ctx, f.buyer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseSold, got.Status)
	assert.True(t, got.BuyPrice.Equal(decimal.NewFromInt(180000)))
}

func TestCreatePurchase_AmountIsExactProduct(t *testing.T) {
	f := setup(t)
	_, err := f.rates.UpdateRates(context.Background(), f.admin, []rates.RateUpdate{
		{MetalID: f.gold.ID, NewRate: decimal.RequireFromString("1800.5555")},
	})
	require.NoError(t, err)

	p := f.buy(t, "1.2345")
	want := decimal.RequireFromString("2222.78576475")
	assert.True(t, p.Payment.Amount.Equal(want), "amount %s", p.Payment.Amount)
	assert.True(t, p.Payment.Amount.Equal(p.Quantity.Mul(p.BuyPrice)))

	var stored domain.Payment
	require.NoError(t, f.db.Where("purchase_id = ?", p.ID).First(&stored).Error)
	assert.True(t, stored.Amount.Equal(want), "stored amount %s", stored.Amount)
}

func TestCreatePurchase_FailedWriteLeavesNothing(t *testing.T) {
	for _, table := range []string{"payments", "ledger_events"} {
		t.Run(table, func(t *testing.T) {
			f := setup(t)
			boom := errors.New("boom")
			require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
				if tx.Statement.Table == table {
					tx.AddError(boom)
				}
			}))

			_, err := f.svc.CreatePurchase(context.Background(), f.buyer, CreateInput{
				MetalID:       f.gold.ID,
				Quantity:      decimal.NewFromInt(1),
				PaymentMethod: domain.MethodCard,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))

			var purchaseRows, paymentRows, events int64
			require.NoError(t, f.db.Model(&domain.Purchase{}).Count(&purchaseRows).Error)
			require.NoError(t, f.db.Model(&domain.Payment{}).Count(&paymentRows).Error)
			require.NoError(t, f.db.Model(&domain.LedgerEvent{}).Where("event_type = ?", domain.EventPurchaseCreated).Count(&events).Error)
			assert.Zero(t, purchaseRows)
			assert.Zero(t, paymentRows)
			assert.Zero(t, events)
		})
	}
}

func TestSellPurchase_ConcurrentSingleWinner(t *testing.T) {
	f := setup(t)
	p := f.buy(t, "1")

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SellPurchase(context.Background(), f.buyer, p.ID)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperror.Is(err, apperror.KindConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)

	var events int64
	require.NoError(t, f.db.Model(&domain.LedgerEvent{}).Where("event_type = ?", domain.EventPurchaseSold).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestAnonymousCallerIsUnauthenticated(t *testing.T) {
	f := setup(t)
	p := f.buy(t, "1")
	ctx := context.Background()
	var anon auth.Caller

	_, err := f.svc.CreatePurchase(ctx, anon, CreateInput{MetalID: f.gold.ID, Quantity: decimal.NewFromInt(1), PaymentMethod: domain.MethodCash})
	assert.Equal(t, ErrUnauthenticated, err)
	_, err = f.svc.ListPurchases(ctx, anon)
	assert.Equal(t, ErrUnauthenticated, err)
	_, err = f.svc.GetPurchase(ctx, anon, p.ID)
	assert.Equal(t, ErrUnauthenticated, err)
	_, err = f.svc.SellPurchase(ctx, anon, p.ID)
	assert.Equal(t, ErrUnauthenticated, err)

	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
	assert.Equal(t, 401, apperror.StatusCode(err))
}

func TestGetPurchase_OwnerOnly(t *testing.T) {
	f := setup(t)
	p := f.buy(t, "1")

	_, err := f.svc.GetPurchase(context.Background(), f.admin, p.ID)
	assert.Equal(t, ErrPurchaseNotFound, err)
}

func TestAnnotate(t *testing.T) {
	loss := Annotate(domain.Purchase{
		Quantity:     decimal.RequireFromString("1.5"),
		BuyPrice:     decimal.NewFromInt(2200),
		CurrentPrice: decimal.NewFromInt(2000),
	})
	assert.True(t, loss.ProfitLoss.Equal(decimal.NewFromInt(-300)))
	require.NotNil(t, loss.ProfitLossPercentage)
	assert.Equal(t, "-9.09", loss.ProfitLossPercentage.String())

	free := Annotate(domain.Purchase{
		Quantity:     decimal.NewFromInt(2),
		BuyPrice:     decimal.Zero,
		CurrentPrice: decimal.NewFromInt(10),
	})
	assert.True(t, free.ProfitLoss.Equal(decimal.NewFromInt(20)))
	assert.Nil(t, free.ProfitLossPercentage)
}
