// Package ledgertest holds behaviour checks shared by every ledger.State backend.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletguru/internal/ledger"
)

type note struct {
	Owner string `json:"owner"`
	ID    string `json:"id"`
	Body  string `json:"body"`
}

func (n note) Key() []string { return []string{n.Owner, n.ID} }

// RunStateTests exercises a State backend. newState must return an empty state.
func RunStateTests(t *testing.T, newState func(t *testing.T) ledger.State) {
	t.Helper()

	t.Run("get missing returns nil", func(t *testing.T) {
		st := newState(t)
		v, err := st.GetState(context.Background(), "\x00Note\x00nope\x00")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("put get delete", func(t *testing.T) {
		ctx := context.Background()
		st := newState(t)
		key, err := ledger.CreateCompositeKey("Note", "u1", "n1")
		require.NoError(t, err)

		require.NoError(t, st.PutState(ctx, key, []byte(`{"a":1}`)))
		got, err := st.GetState(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))

		require.NoError(t, st.PutState(ctx, key, []byte(`{"a":2}`)))
		got, err = st.GetState(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"a":2}`, string(got))

		require.NoError(t, st.DeleteState(ctx, key))
		got, err = st.GetState(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("partial key scan is scoped and ordered", func(t *testing.T) {
		ctx := context.Background()
		st := newState(t)
		put := func(objectType string, attrs ...string) {
			key, err := ledger.CreateCompositeKey(objectType, attrs...)
			require.NoError(t, err)
			require.NoError(t, st.PutState(ctx, key, []byte(`{}`)))
		}
		put("Note", "u2", "b")
		put("Note", "u1", "b")
		put("Note", "u1", "a")
		put("Note", "u10", "a")
		put("Notes", "u1", "a")
		put("Goal", "u1", "a")

		prefix, err := ledger.CreateCompositeKey("Note", "u1")
		require.NoError(t, err)
		kvs, err := st.GetStateByPartialKey(ctx, prefix)
		require.NoError(t, err)
		require.Len(t, kvs, 2)
		for i, want := range []string{"a", "b"} {
			typ, attrs, err := ledger.SplitCompositeKey(kvs[i].Key)
			require.NoError(t, err)
			assert.Equal(t, "Note", typ)
			assert.Equal(t, []string{"u1", want}, attrs)
		}

		all, err := ledger.CreateCompositeKey("Note")
		require.NoError(t, err)
		kvs, err = st.GetStateByPartialKey(ctx, all)
		require.NoError(t, err)
		assert.Len(t, kvs, 4)
	})

	t.Run("collection contract", func(t *testing.T) {
		ctx := context.Background()
		notes := ledger.NewCollection[note](newState(t), "Note")

		n := note{Owner: "u1", ID: "n1", Body: "hello"}
		require.NoError(t, notes.Create(ctx, n))
		err := notes.Create(ctx, n)
		assert.True(t, errors.Is(err, ledger.ErrExists), "got %v", err)

		got, err := notes.Get(ctx, "u1", "n1")
		require.NoError(t, err)
		assert.Equal(t, n, got)

		n.Body = "changed"
		require.NoError(t, notes.Update(ctx, n))
		got, err = notes.Get(ctx, "u1", "n1")
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Body)

		err = notes.Update(ctx, note{Owner: "u1", ID: "missing"})
		assert.ErrorIs(t, err, ledger.ErrNotFound)

		require.NoError(t, notes.Create(ctx, note{Owner: "u2", ID: "n2"}))
		mine, err := notes.List(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, mine, 1)
		everyone, err := notes.List(ctx)
		require.NoError(t, err)
		assert.Len(t, everyone, 2)

		require.NoError(t, notes.Delete(ctx, "u1", "n1"))
		assert.ErrorIs(t, notes.Delete(ctx, "u1", "n1"), ledger.ErrNotFound)
		_, err = notes.Get(ctx, "u1", "n1")
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}
