package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/repo"
	"github.com/freighthos/eld-engine/testutil"
)

// testTx opens a transaction that is rolled back when the test finishes, so
// tests never leave rows behind and can run concurrently against one database.
func testTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// seedDriver inserts a driver row with unique identifiers for FK-dependent tests.
func seedDriver(t *testing.T, tx pgx.Tx) domain.Driver {
	t.Helper()
	suffix := uuid.NewString()[:8]

	driver, err := repo.NewDriverRepo(tx).Create(context.Background(), domain.Driver{
		Email:          fmt.Sprintf("driver-%s@example.com", suffix),
		EmployeeNumber: "EMP-" + suffix,
		FirstName:      "Test",
		LastName:       "Driver",
		PasswordHash:   "x",
	})
	require.NoError(t, err)
	return driver
}
