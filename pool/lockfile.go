package pool

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// crossProcessLockTimeout bounds how long we wait for another stamd
// process to release its advisory lock on a store's sibling .lock file.
// Failing open rather than hanging a request indefinitely.
const crossProcessLockTimeout = 200 * time.Millisecond

// withCrossProcessLock runs fn while holding a best-effort advisory file
// lock on id's ".lock" sibling file, guarding against two stamd processes
// pointed at the same base directory racing on the same store file. It
// fails open: if the lock cannot be acquired within
// crossProcessLockTimeout, fn still runs, just without cross-process
// protection.
func withCrossProcessLock(lockPath string, fn func() error) error {
	fl := flock.New(lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), crossProcessLockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err == nil && locked {
		defer fl.Unlock() //nolint:errcheck
	}
	return fn()
}
