package gwconfig

import (
	"fmt"
	"os"
	"syscall"
)

// Lock is a held advisory lock on a PID file. Release drops the lock and
// closes the file; it does not remove it.
type Lock struct {
	file *os.File
}

// AcquireLock takes an exclusive, non-blocking advisory lock on path and
// writes the current PID into it. It returns an error if the lock is
// already held by another process, which the caller treats as a fatal
// startup failure (spec.md §6, §7).
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("gwconfig: open lockfile %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("gwconfig: lockfile %s held by another process: %w", path, err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("gwconfig: truncate lockfile %s: %w", path, err)
	}
	if _, err := f.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		f.Close()
		return nil, fmt.Errorf("gwconfig: write pid to lockfile %s: %w", path, err)
	}

	return &Lock{file: f}, nil
}

// Release drops the lock and closes the underlying file.
func (l *Lock) Release() error {
	return l.file.Close()
}
