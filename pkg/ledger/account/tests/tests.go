package tests

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sort"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/ledger/account"
)

func RunTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testRoundTrip,
		testSaveBatch,
		testSaveErrors,
		testDeleteEmpty,
		testGetAllByOwner,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s account.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		expected := &account.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 1_461_600,
			Data:     []byte{1, 2, 3},
		}
		cloned := expected.Clone()

		_, err := s.Get(ctx, expected.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		require.NoError(t, s.Save(ctx, expected))

		actual, err := s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		// Mutating a returned record doesn't affect the store
		actual.Data[0] = 9
		actual.Lamports = 0
		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		expected.Lamports = 10
		expected.Executable = true
		expected.Data = nil
		cloned = expected.Clone()
		require.NoError(t, s.Save(ctx, expected))

		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testSaveBatch(t *testing.T, s account.Store) {
	t.Run("testSaveBatch", func(t *testing.T) {
		ctx := context.Background()

		owner := newKey(t)
		var records []*account.Record
		var addresses []ed25519.PublicKey
		for i := 0; i < 10; i++ {
			record := &account.Record{
				Address:  newKey(t),
				Owner:    owner,
				Lamports: uint64(i + 1),
				Data:     []byte{byte(i)},
			}
			records = append(records, record)
			addresses = append(addresses, record.Address)
		}

		require.NoError(t, s.Save(ctx, records...))

		missing := newKey(t)
		batch, err := s.GetBatch(ctx, append(addresses, missing)...)
		require.NoError(t, err)
		require.Len(t, batch, len(records))
		for _, record := range records {
			actual, ok := batch[base58.Encode(record.Address)]
			require.True(t, ok)
			assertEquivalentRecords(t, record, actual)
		}

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, len(records), count)
	})
}

func testSaveErrors(t *testing.T, s account.Store) {
	t.Run("testSaveErrors", func(t *testing.T) {
		ctx := context.Background()

		valid := &account.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 1,
		}

		for _, invalid := range []*account.Record{
			{Owner: newKey(t), Lamports: 1},
			{Address: newKey(t), Lamports: 1},
			{Address: []byte{1, 2, 3}, Owner: newKey(t), Lamports: 1},
		} {
			err := s.Save(ctx, valid, invalid)
			assert.ErrorIs(t, err, account.ErrInvalidRecord)
		}

		// Nothing from a rejected batch is written
		_, err := s.Get(ctx, valid.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)
	})
}

func testDeleteEmpty(t *testing.T, s account.Store) {
	t.Run("testDeleteEmpty", func(t *testing.T) {
		ctx := context.Background()

		record := &account.Record{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 890_880,
		}
		require.NoError(t, s.Save(ctx, record))

		record.Lamports = 0
		require.NoError(t, s.Save(ctx, record))

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, account.ErrAccountNotFound, err)

		owned, err := s.GetAllByOwner(ctx, record.Owner)
		require.NoError(t, err)
		assert.Empty(t, owned)

		// Deleting an account that never existed is a no-op
		require.NoError(t, s.Save(ctx, &account.Record{Address: newKey(t), Owner: newKey(t)}))

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}

func testGetAllByOwner(t *testing.T, s account.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		owners := []ed25519.PublicKey{newKey(t), newKey(t)}
		var expected []*account.Record
		for i := 0; i < 6; i++ {
			record := &account.Record{
				Address:  newKey(t),
				Owner:    owners[i%2],
				Lamports: 1,
				Data:     []byte{byte(i)},
			}
			require.NoError(t, s.Save(ctx, record))
			if i%2 == 0 {
				expected = append(expected, record)
			}
		}
		sort.Slice(expected, func(i, j int) bool {
			return bytes.Compare(expected[i].Address, expected[j].Address) < 0
		})

		actual, err := s.GetAllByOwner(ctx, owners[0])
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[i], actual[i])
		}

		// Reassigning ownership moves the account between owners
		expected[0].Owner = owners[1]
		require.NoError(t, s.Save(ctx, expected[0]))

		actual, err = s.GetAllByOwner(ctx, owners[0])
		require.NoError(t, err)
		assert.Len(t, actual, len(expected)-1)

		actual, err = s.GetAllByOwner(ctx, owners[1])
		require.NoError(t, err)
		assert.Len(t, actual, 4)

		actual, err = s.GetAllByOwner(ctx, newKey(t))
		require.NoError(t, err)
		assert.Empty(t, actual)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *account.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.True(t, bytes.Equal(obj1.Data, obj2.Data))
	assert.Equal(t, obj1.Executable, obj2.Executable)
}

func newKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub
}
