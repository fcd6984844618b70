// internal/testutil/store.go
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/villagehq/village/internal/app/store/docstore"
)

// SetupTestStore opens a fresh document store in a per-test temp directory.
// The store is closed and its directory removed when the test finishes.
func SetupTestStore(t *testing.T) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})
	return store
}

// TestContext returns a context with a generous timeout for store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
