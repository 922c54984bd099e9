package pool

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotation/stamd/internal/stamstore"
)

func newTestPool(t *testing.T, readonly bool) *StorePool {
	t.Helper()
	dir := t.TempDir()
	p, err := New(Config{
		BaseDir:    dir,
		Extension:  "store.stam.json",
		BaseURL:    "http://localhost:8080",
		ReadOnly:   readonly,
		UnloadTime: 10 * time.Minute,
	})
	require.NoError(t, err)
	return p
}

func TestNewStoreThenMapSeesEmptyStore(t *testing.T) {
	p := newTestPool(t, false)
	require.NoError(t, p.NewStore("a"))
	res, err := p.Map("a", func(s *stamstore.AnnotationStore) (interface{}, *Error) {
		return len(s.Resources()), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.(int))
}

func TestNewStoreTwiceIsPermissionDenied(t *testing.T) {
	p := newTestPool(t, false)
	require.NoError(t, p.NewStore("b"))
	require.NoError(t, p.Unload("b"))
	err := p.NewStore("b")
	require.Error(t, err)
	assert.Equal(t, PermissionDenied, err.Kind)
}

func TestMapMutOnReadOnlyPoolIsDenied(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "a.store.stam.json")
	require.NoError(t, os.WriteFile(storePath, []byte(`{"resources":{},"annotations":{}}`), 0o644))
	p, err := New(Config{BaseDir: dir, Extension: "store.stam.json", ReadOnly: true, UnloadTime: time.Hour})
	require.NoError(t, err)
	_, mapErr := p.MapMut("a", func(s *stamstore.AnnotationStore) (interface{}, *Error) {
		t.Fatal("closure must not run against a read-only pool")
		return nil, nil
	})
	require.Error(t, mapErr)
	assert.Equal(t, PermissionDenied, mapErr.Kind)
}

func TestUnloadTwiceIsIdempotent(t *testing.T) {
	p := newTestPool(t, false)
	require.NoError(t, p.NewStore("c"))
	require.NoError(t, p.Unload("c"))
	assert.NoError(t, p.Unload("c"))
}

func TestSaveIsANoOpWithoutMutation(t *testing.T) {
	p := newTestPool(t, false)
	require.NoError(t, p.NewStore("d"))
	require.NoError(t, p.Save("d"))
	info1, statErr := os.Stat(p.storePath("d"))
	require.NoError(t, statErr)
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Save("d"))
	info2, statErr := os.Stat(p.storePath("d"))
	require.NoError(t, statErr)
	assert.Equal(t, info1.ModTime(), info2.ModTime(), "expected no write on second Save")
}

func TestConcurrentMapOnColdStoreLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "e.store.stam.json")
	require.NoError(t, os.WriteFile(storePath, []byte(`{"resources":{},"annotations":{}}`), 0o644))
	p, err := New(Config{BaseDir: dir, Extension: "store.stam.json", UnloadTime: time.Hour})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	var failures atomic.Int32
	var mu sync.Mutex
	seen := map[*stamstore.AnnotationStore]bool{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := p.Map("e", func(s *stamstore.AnnotationStore) (interface{}, *Error) {
				mu.Lock()
				seen[s] = true
				mu.Unlock()
				return nil, nil
			})
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, failures.Load(), "concurrent Map calls failed")
	assert.Len(t, seen, 1, "all Map calls should see the single loaded store instance")
}

func TestFlushForceEvictsEverything(t *testing.T) {
	p := newTestPool(t, false)
	for _, id := range []string{"f1", "f2", "f3"} {
		require.NoError(t, p.NewStore(id))
	}
	ids, err := p.Flush(true)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	for _, id := range []string{"f1", "f2", "f3"} {
		_, ok := p.stores.get(id)
		assert.Falsef(t, ok, "store %q should be evicted from the store table", id)
	}
}

func TestJanitorRespectsCancellation(t *testing.T) {
	p := newTestPool(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.StartJanitor(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after context cancellation")
	}
}
