package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/OceanScout/pkg/errors"
)

type fakeTx struct {
	pgx.Tx

	execSQL    []string
	copyTable  pgx.Identifier
	copyCols   []string
	copiedRows [][]any
	copyErr    error
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (f *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copyTable = table
	f.copyCols = cols
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.copiedRows = append(f.copiedRows, vals)
	}
	return int64(len(f.copiedRows)), src.Err()
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeStarter struct {
	tx  *fakeTx
	err error
}

func (f *fakeStarter) Begin(context.Context) (pgx.Tx, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func TestBulkImporter_ReplaceKeyword(t *testing.T) {
	tx := &fakeTx{}
	imp := newBulkImporter(&fakeStarter{tx: tx}, logging.NewNopLogger())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	imp.now = func() time.Time { return fixed }

	products := []product.Product{
		{ASIN: "B001", Title: "Mat", Price: product.Float64Ptr(19.99), ReviewsCount: 10},
		{ASIN: "B002", FeatureBullets: []string{"thick"}, SalesVolume: product.IntPtr(300)},
	}

	n, err := imp.ReplaceKeyword(context.Background(), "yoga mat", products)
	require.NoError(t, err)

	assert.Equal(t, int64(2), n)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	require.Len(t, tx.execSQL, 1)
	assert.Contains(t, tx.execSQL[0], "DELETE FROM products")
	assert.Equal(t, pgx.Identifier{"products"}, tx.copyTable)
	assert.Equal(t, productColumns, tx.copyCols)

	require.Len(t, tx.copiedRows, 2)
	first := tx.copiedRows[0]
	require.Len(t, first, len(productColumns))
	assert.Equal(t, "yoga mat", first[0])
	assert.Equal(t, "B001", first[1])
	assert.Equal(t, []string{}, first[3])
	assert.Equal(t, fixed, first[len(first)-1])
	assert.Equal(t, []string{"thick"}, tx.copiedRows[1][3])
}

func TestBulkImporter_CopyFailureRollsBack(t *testing.T) {
	tx := &fakeTx{copyErr: errors.New("copy broken")}
	imp := newBulkImporter(&fakeStarter{tx: tx}, logging.NewNopLogger())

	_, err := imp.ReplaceKeyword(context.Background(), "kw", []product.Product{{ASIN: "B1"}})

	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestBulkImporter_Validation(t *testing.T) {
	imp := newBulkImporter(&fakeStarter{err: errors.New("must not begin")}, logging.NewNopLogger())

	_, err := imp.ReplaceKeyword(context.Background(), "", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = imp.ReplaceKeyword(context.Background(), "kw", []product.Product{{ASIN: ""}})
	assert.Error(t, err)
}

func TestBulkImporter_BeginFailure(t *testing.T) {
	imp := newBulkImporter(&fakeStarter{err: errors.New("pool closed")}, logging.NewNopLogger())

	_, err := imp.ReplaceKeyword(context.Background(), "kw", nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}
