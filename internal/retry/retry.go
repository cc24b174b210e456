package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// permanentError corta los reintentos
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marca un error como no reintentable (p.ej. un 4xx del webhook)
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func WithRetry(
	ctx context.Context,
	attempts int,
	baseDelay time.Duration,
	fn func() error,
) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error

	for i := 1; i <= attempts; i++ {
		// Verificar si el context expiró
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err = fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		// No hacer sleep en el último intento
		if i == attempts {
			break
		}

		// Backoff exponencial con jitter
		sleep := baseDelay * time.Duration(1<<uint(i-1))
		var jitter time.Duration
		if baseDelay > 0 {
			jitter = time.Duration(rand.Int63n(int64(baseDelay)))
		}

		select {
		case <-time.After(sleep + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return err
}
