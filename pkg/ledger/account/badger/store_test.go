package badger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/burn-hook/pkg/ledger/account/tests"
)

func TestAccountBadgerStore(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	testStore := New(db)
	teardown := func() {
		require.NoError(t, testStore.(*store).reset())
	}
	tests.RunTests(t, testStore, teardown)
}

func TestAccountBadgerStore_OnDisk(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	testStore := New(db)
	teardown := func() {
		require.NoError(t, testStore.(*store).reset())
	}
	tests.RunTests(t, testStore, teardown)
}
