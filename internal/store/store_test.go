package store

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/querysql"
)

// openTestStore opens an in-memory sqlite database seeded with a small
// wholesalers table. sqlite binds @name parameters the same way the
// production driver does, which is all the store relies on.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE wholesalers (
			wholesaler_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			region TEXT
		)`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO wholesalers (wholesaler_id, name, status, region) VALUES
			(1, 'Acme Foods', 'active', 'north'),
			(2, 'Basin Goods', 'inactive', 'south'),
			(3, 'Crest Supply', 'active', 'south')`)
	require.NoError(t, err)

	return New(db)
}

func TestStoreQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	compiled := querysql.Compiled{
		SQL:    "SELECT name, region FROM wholesalers w WHERE (status = @p0) ORDER BY name ASC",
		Params: map[string]any{"p0": "active"},
	}

	rows, err := s.Query(ctx, compiled)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme Foods", rows[0]["name"])
	assert.Equal(t, "north", rows[0]["region"])
	assert.Equal(t, "Crest Supply", rows[1]["name"])
}

func TestStoreQueryMultipleParams(t *testing.T) {
	s := openTestStore(t)

	compiled := querysql.Compiled{
		SQL:    "SELECT name FROM wholesalers w WHERE (status = @p0 AND region = @p1)",
		Params: map[string]any{"p0": "active", "p1": "south"},
	}

	rows, err := s.Query(context.Background(), compiled)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Crest Supply", rows[0]["name"])
}

func TestStoreQueryNoRows(t *testing.T) {
	s := openTestStore(t)

	compiled := querysql.Compiled{
		SQL:    "SELECT name FROM wholesalers w WHERE (1=0)",
		Params: map[string]any{},
	}

	rows, err := s.Query(context.Background(), compiled)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStoreQueryErrorCarriesStatementID(t *testing.T) {
	s := openTestStore(t)

	compiled := querysql.Compiled{SQL: "SELECT nope FROM missing_table", Params: map[string]any{}}
	_, err := s.Query(context.Background(), compiled)
	require.Error(t, err)

	id, ok := StatementIDOf(err)
	require.True(t, ok)
	assert.NotEmpty(t, id.String())

	var se *StatementError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, compiled.SQL, se.SQL)
}

func TestStoreExec(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	affected, err := s.Exec(ctx, querysql.Compiled{
		SQL:    "UPDATE wholesalers SET status = @p0 WHERE region = @p1",
		Params: map[string]any{"p0": "suspended", "p1": "south"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
}

func TestStoreWithTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		s := openTestStore(t)
		ctx := context.Background()

		err := s.WithTx(ctx, func(tx *Tx) error {
			_, err := tx.Exec(ctx, querysql.Compiled{
				SQL:    "UPDATE wholesalers SET status = @p0 WHERE wholesaler_id = @p1",
				Params: map[string]any{"p0": "archived", "p1": 2},
			})
			return err
		})
		require.NoError(t, err)

		rows, err := s.Query(ctx, querysql.Compiled{
			SQL:    "SELECT status FROM wholesalers WHERE wholesaler_id = @p0",
			Params: map[string]any{"p0": 2},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "archived", rows[0]["status"])
	})

	t.Run("rollback on error", func(t *testing.T) {
		s := openTestStore(t)
		ctx := context.Background()

		sentinel := assert.AnError
		err := s.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.Exec(ctx, querysql.Compiled{
				SQL:    "UPDATE wholesalers SET status = @p0",
				Params: map[string]any{"p0": "archived"},
			}); err != nil {
				return err
			}
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		rows, err := s.Query(ctx, querysql.Compiled{
			SQL:    "SELECT COUNT(*) AS n FROM wholesalers WHERE status = @p0",
			Params: map[string]any{"p0": "archived"},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 0, rows[0]["n"])
	})
}

func TestBindParamsDeterministic(t *testing.T) {
	params := map[string]any{"p2": 3, "p0": 1, "p1": 2}
	args := bindParams(params)
	require.Len(t, args, 3)

	named0, ok := args[0].(sql.NamedArg)
	require.True(t, ok)
	assert.Equal(t, "p0", named0.Name)
	named2 := args[2].(sql.NamedArg)
	assert.Equal(t, "p2", named2.Name)
}
