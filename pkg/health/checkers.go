package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck returns a CheckFunc that fails when the goroutine count
// exceeds threshold. Useful as a liveness check for goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// StorageWriteCheck returns a CheckFunc that verifies the data directory is
// writable by creating and removing a probe file. Useful as a readiness check
// for the flat-file store.
func StorageWriteCheck(dir string) CheckFunc {
	return func(_ context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create data dir")
		}
		probe := filepath.Join(dir, ".health-probe")
		if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
			return errors.Wrap(err, "write probe")
		}
		if err := os.Remove(probe); err != nil {
			return errors.Wrap(err, "remove probe")
		}
		return nil
	}
}
