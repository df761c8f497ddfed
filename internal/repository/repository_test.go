package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/repository"
	"github.com/voxic/multi-odl-demo/internal/testutil"
)

func TestFindByKeyOrdersNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	db, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	testutil.InsertDocumentAt(t, db, "accounts_raw", testutil.Account(501, 9, 100, "CHECKING"), now.Add(-2*time.Hour))
	testutil.InsertDocumentAt(t, db, "accounts_raw", testutil.Account(501, 9, 300, "CHECKING"), now)
	testutil.InsertDocumentAt(t, db, "accounts_raw", testutil.Account(501, 9, 200, "CHECKING"), now.Add(-time.Hour))
	// Different account, must not match.
	testutil.InsertDocument(t, db, "accounts_raw", testutil.Account(502, 9, 999, "SAVINGS"))

	docs := repository.NewDocumentRepository(db)
	recs, err := docs.FindByKey(ctx, domain.CollectionAccounts, "account_id", 501)
	require.NoError(t, err)

	require.Len(t, recs, 3)
	assert.Equal(t, float64(300), recs[0].Fields["balance"])
	assert.Equal(t, float64(200), recs[1].Fields["balance"])
	assert.Equal(t, float64(100), recs[2].Fields["balance"])
	for i := range recs {
		assert.Positive(t, recs[i].Seq)
		assert.False(t, recs[i].ReceivedAt.IsZero())
	}
}

func TestFindByKeyMatchesEnvelopedKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	db, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Same key reachable through three storage shapes.
	testutil.InsertDocument(t, db, "customers_raw", testutil.Customer(42, "John", "Smith", "ACTIVE"))
	testutil.InsertDocument(t, db, "customers_raw",
		testutil.CDCEnvelope("u", testutil.Customer(42, "John", "Smith", "SUSPENDED")))
	testutil.InsertDocument(t, db, "customers_raw",
		map[string]any{"fullDocument": testutil.Customer(42, "Johnny", "Smith", "ACTIVE")})

	docs := repository.NewDocumentRepository(db)
	recs, err := docs.FindByKey(ctx, domain.CollectionCustomers, "customer_id", 42)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestDistinctCustomerIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	db, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	testutil.InsertDocument(t, db, "customers_raw", testutil.Customer(1, "A", "A", "ACTIVE"))
	testutil.InsertDocument(t, db, "customers_raw", testutil.Customer(2, "B", "B", "ACTIVE"))
	// Multiple versions of one customer count once.
	testutil.InsertDocument(t, db, "customers_raw",
		testutil.CDCEnvelope("u", testutil.Customer(2, "B", "B", "SUSPENDED")))
	// A document without a usable id is skipped, not fatal.
	testutil.InsertDocument(t, db, "customers_raw", map[string]any{"garbage": true})

	docs := repository.NewDocumentRepository(db)
	ids, err := docs.DistinctCustomerIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	n, err := docs.CountCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestProfileUpsertReplaces(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	db, _ := testutil.SetupTestDB(t)
	ctx := context.Background()

	profiles := repository.NewProfileRepository(db)
	require.NoError(t, profiles.Upsert(ctx, 42, []byte(`{"customerId":42,"v":1}`)))
	require.NoError(t, profiles.Upsert(ctx, 42, []byte(`{"customerId":42,"v":2}`)))
	require.NoError(t, profiles.Upsert(ctx, 43, []byte(`{"customerId":43,"v":1}`)))

	got, err := profiles.Get(ctx, 42)
	require.NoError(t, err)
	assert.JSONEq(t, `{"customerId":42,"v":2}`, string(got))

	n, err := profiles.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestProfileGetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	db, _ := testutil.SetupTestDB(t)

	profiles := repository.NewProfileRepository(db)
	_, err := profiles.Get(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
