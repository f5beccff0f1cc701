package credit

import (
	"context"
	"sync"
	"testing"
	"time"

	memoryRepo "classbook/database/repository/memory"
	"classbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*DefaultLedger, *memoryRepo.Store) {
	t.Helper()
	store := memoryRepo.NewStore()
	l := NewLedger(store.Credits(), store.Transactions(), "usd", zap.NewNop())
	l.Now = func() time.Time { return fixedNow }
	return l, store
}

func ptr(t time.Time) *time.Time { return &t }

func TestConsumeOneCredit_SoonestExpiryFirst(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(t)

	later, err := l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "ten pack", Credits: 2, ExpiresAt: ptr(fixedNow.Add(48 * time.Hour))})
	require.NoError(t, err)
	sooner, err := l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "drop in", Credits: 1, ExpiresAt: ptr(fixedNow.Add(24 * time.Hour))})
	require.NoError(t, err)

	ok, err := l.ConsumeOneCredit(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	remaining := map[string]int{}
	pkgs, err := store.Credits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	for _, p := range pkgs {
		remaining[p.ID] = p.CreditsRemaining
	}
	assert.Equal(t, 0, remaining[sooner])
	assert.Equal(t, 2, remaining[later])

	total, err := l.GetUserCredits(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestConsumeOneCredit_SameExpiryOldestPackageFirst(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(t)
	expires := fixedNow.Add(24 * time.Hour)

	// the older package carries the lexically larger id
	require.NoError(t, store.Credits().Insert(ctx, &models.CreditPackage{
		ID: "zz-old", UserID: "u1", Credits: 1, CreditsRemaining: 1,
		ExpiresAt: &expires, ExpiresSort: expires, CreatedAt: fixedNow.Add(-2 * time.Hour),
	}))
	require.NoError(t, store.Credits().Insert(ctx, &models.CreditPackage{
		ID: "aa-new", UserID: "u1", Credits: 1, CreditsRemaining: 1,
		ExpiresAt: &expires, ExpiresSort: expires, CreatedAt: fixedNow.Add(-time.Hour),
	}))

	ok, err := l.ConsumeOneCredit(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)

	pkgs, err := store.Credits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "zz-old", pkgs[0].ID)
	assert.Equal(t, 0, pkgs[0].CreditsRemaining)
	assert.Equal(t, 1, pkgs[1].CreditsRemaining)
}

func TestConsumeOneCredit_NonExpiringLast(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(t)

	forever, err := l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "gift", Credits: 1})
	require.NoError(t, err)
	_, err = l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "promo", Credits: 1, ExpiresAt: ptr(fixedNow.Add(time.Hour))})
	require.NoError(t, err)

	ok, err := l.ConsumeOneCredit(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)

	pkgs, err := store.Credits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	for _, p := range pkgs {
		if p.ID == forever {
			assert.Equal(t, 1, p.CreditsRemaining)
		}
	}
}

func TestConsumeOneCredit_SkipsExpired(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	_, err := l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "old", Credits: 3, ExpiresAt: ptr(fixedNow.Add(-time.Hour))})
	require.NoError(t, err)

	total, err := l.GetUserCredits(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, total)

	ok, err := l.ConsumeOneCredit(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeOneCredit_ConcurrentLastCredit(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	_, err := l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "single", Credits: 1})
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.ConsumeOneCredit(ctx, "u1")
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestConsumeOneCredit_AnonymousUser(t *testing.T) {
	l, _ := newTestLedger(t)
	ok, err := l.ConsumeOneCredit(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantPackage_RecordsPurchase(t *testing.T) {
	ctx := context.Background()
	l, store := newTestLedger(t)

	id, err := l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "five pack", Credits: 5, PriceCents: 7500})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	txs := store.Transactions().All()
	require.Len(t, txs, 1)
	assert.Equal(t, models.TxPackagePurchase, txs[0].Type)
	assert.Equal(t, int64(7500), txs[0].AmountCents)
	assert.Equal(t, "usd", txs[0].Currency)

	_, err = l.GrantPackage(ctx, GrantRequest{UserID: "u1", Name: "free", Credits: 1})
	require.NoError(t, err)
	assert.Len(t, store.Transactions().All(), 1)
}

func TestGrantPackage_Invalid(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.GrantPackage(context.Background(), GrantRequest{UserID: "u1", Credits: 0})
	assert.ErrorIs(t, err, ErrInvalidGrant)
}
