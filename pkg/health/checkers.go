package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// Pinger is implemented by connection pools.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// DirWritableCheck fails when a file cannot be created in dir.
func DirWritableCheck(dir string) CheckFunc {
	return func(_ context.Context) error {
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return errors.Wrap(err, "create probe file")
		}
		name := f.Name()
		_ = f.Close()
		if err := os.Remove(name); err != nil {
			return errors.Wrapf(err, "remove %s", filepath.Base(name))
		}
		return nil
	}
}
