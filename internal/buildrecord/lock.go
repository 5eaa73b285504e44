package buildrecord

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	maxLockRetries = 50
	lockRetryDelay = 10 * time.Millisecond
)

// ErrLocked is returned when another driver holds the build-state directory.
var ErrLocked = errors.New("build state directory is locked by another process")

// Lock is an exclusive lock on a build-state directory.
type Lock struct {
	lock *flock.Flock
}

// LockDir takes the exclusive lock on dir, creating dir if needed. It retries
// briefly before giving up with ErrLocked.
func LockDir(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating build state directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, ".fgdeps.lock"))

	for i := 0; i < maxLockRetries; i++ {
		locked, err := lock.TryLock()
		if err != nil {
			return nil, errors.Join(ErrLocked, err)
		}
		if locked {
			return &Lock{lock: lock}, nil
		}
		time.Sleep(lockRetryDelay)
	}
	return nil, ErrLocked
}

// Unlock releases the lock. It is safe to call more than once.
func (l *Lock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
