package xlcalc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract runs the behavior every Store implementation shares.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("unknown spreadsheet", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "nope")
		assert.ErrorIs(t, err, ErrNoSpreadsheet)
		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("set and remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetCellExpr(ctx, "budget", "A1", "1"))
		require.NoError(t, s.SetCellExpr(ctx, "budget", "B1", "=A1+1"))
		require.NoError(t, s.SetCellExpr(ctx, "budget", "A1", "2"))

		pairs, err := s.Load(ctx, "budget")
		require.NoError(t, err)
		assert.ElementsMatch(t, []Pair{{Cell: "A1", Expr: "2"}, {Cell: "B1", Expr: "=A1+1"}}, pairs)

		require.NoError(t, s.SetCellExpr(ctx, "budget", "A1", ""))
		pairs, err = s.Load(ctx, "budget")
		require.NoError(t, err)
		assert.Equal(t, []Pair{{Cell: "B1", Expr: "=A1+1"}}, pairs)
	})

	t.Run("clear keeps sheet known", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetCellExpr(ctx, "budget", "C3", "7"))
		require.NoError(t, s.Clear(ctx, "budget"))

		pairs, err := s.Load(ctx, "budget")
		require.NoError(t, err)
		assert.Empty(t, pairs)
		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"budget"}, names)
	})

	t.Run("replace", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetCellExpr(ctx, "budget", "Z9", "1"))
		require.NoError(t, s.Replace(ctx, "budget", []Pair{{Cell: "A1", Expr: "3"}, {Cell: "A2", Expr: "=A1"}}))

		pairs, err := s.Load(ctx, "budget")
		require.NoError(t, err)
		assert.Equal(t, []Pair{{Cell: "A1", Expr: "3"}, {Cell: "A2", Expr: "=A1"}}, pairs)
	})

	t.Run("sheets are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetCellExpr(ctx, "b", "A1", "1"))
		require.NoError(t, s.SetCellExpr(ctx, "a", "A1", "2"))

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, names)

		pairs, err := s.Load(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, []Pair{{Cell: "A1", Expr: "1"}}, pairs)
	})
}

func TestMemStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemStore() })
}

func TestMemStore_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	for _, cell := range []string{"C1", "A1", "B1"} {
		require.NoError(t, s.SetCellExpr(ctx, "s", cell, "1"))
	}
	require.NoError(t, s.SetCellExpr(ctx, "s", "A1", "2"))

	pairs, err := s.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Cell: "C1", Expr: "1"}, {Cell: "A1", Expr: "2"}, {Cell: "B1", Expr: "1"}}, pairs)
}

func TestMemStore_RemoveUnknownCell(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.SetCellExpr(ctx, "s", "A1", ""))
	pairs, err := s.Load(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
