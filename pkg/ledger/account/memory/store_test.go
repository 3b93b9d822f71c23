package memory

import (
	"testing"

	"github.com/code-payments/burn-hook/pkg/ledger/account/tests"
)

func TestAccountMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
