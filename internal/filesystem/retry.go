package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"raf-importer/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// config is the package-level retry configuration. Not synchronized; set it
// at startup before any concurrent use.
var config = DefaultRetryConfig()

// SetRetryConfig replaces the package-level retry configuration.
func SetRetryConfig(c RetryConfig) {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultRetryConfig().InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	config = c
}

// isStaleError checks if an error is an NFS stale file handle error
// (ESTALE, errno 116 on Linux). Only these are worth retrying; a second
// lookup re-resolves the handle on the server.
func isStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn, retrying on NFS stale handle errors with exponential
// backoff. All exported operations in this package funnel through here so
// the retry discipline and metrics stay uniform.
func withRetry(op, path string, fn func() error) error {
	start := time.Now()
	backoff := config.InitialBackoff

	var err error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err = fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", op, attempt, path)
			}
			break
		}

		if !isStaleError(err) {
			break
		}
		observeStaleError(op)

		if attempt < config.MaxRetries {
			observeRetryAttempt(op)
			logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		} else {
			logging.Warn("%s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
		}
	}

	observeOperation(op, time.Since(start).Seconds(), err)
	return err
}

// Stat performs os.Stat with retry on NFS stale file handle errors.
func Stat(path string) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, func() error {
		var err error
		info, err = os.Stat(path)
		return err
	})
	return info, err
}

// Open performs os.Open with retry on NFS stale file handle errors.
// The caller owns the returned file.
func Open(path string) (*os.File, error) {
	var f *os.File
	err := withRetry("open", path, func() error {
		var err error
		f, err = os.Open(path)
		return err
	})
	return f, err
}

// ReadFile performs os.ReadFile with retry on NFS stale file handle errors.
func ReadFile(path string) ([]byte, error) {
	var data []byte
	err := withRetry("read", path, func() error {
		var err error
		data, err = os.ReadFile(path)
		return err
	})
	return data, err
}

// WriteFile performs os.WriteFile with retry on NFS stale file handle errors.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return withRetry("write", path, func() error {
		return os.WriteFile(path, data, perm)
	})
}
