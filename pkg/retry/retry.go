package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/validate"
)

// Config holds retry configuration
type Config struct {
	MaxRetries int                           // Retries after the first attempt; attempts = MaxRetries + 1
	Delay      time.Duration                 // Fixed wait between failed attempts
	RetryIf    func(error) bool              // Nil means DefaultRetryable
	OnRetry    func(attempt int, err error)  // Called before each wait, attempt is 1-based
	OnGiveUp   func(attempts int, err error) // Called once when the last allowed attempt fails
}

// DefaultConfig returns the fixed one-second policy
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Delay:      1 * time.Second,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or has been
// attempted MaxRetries+1 times. The last error is returned unchanged. Once
// ctx itself is done Do stops and returns ctx.Err(); a context error raised
// by fn under a live ctx is an ordinary failure.
func Do(ctx context.Context, config Config, fn func(ctx context.Context) error) error {
	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryIf := config.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryable
	}

	delay := config.Delay
	backoff := goretry.WithMaxRetries(uint64(maxRetries), goretry.BackoffFunc(func() (time.Duration, bool) {
		return delay, false
	}))

	attempt := 0
	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !retryIf(err) {
			return err
		}
		if attempt > maxRetries {
			if config.OnGiveUp != nil {
				config.OnGiveUp(attempt, err)
			}
		} else if config.OnRetry != nil {
			config.OnRetry(attempt, err)
		}
		return goretry.RetryableError(err)
	})
}

// Always retries every failure
func Always(err error) bool {
	return err != nil
}

// DefaultRetryable retries every failure the operation raises. Argument
// binding errors and validation failures are rejected before the operation
// runs, so repeating them cannot help.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, operation.ErrBind) {
		return false
	}
	var verr *validate.Error
	return !errors.As(err, &verr)
}

// IsTransient checks if an error looks like a network or temporary failure
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"503",
		"502",
		"504",
		"eof",
		"broken pipe",
	}

	for _, retryable := range retryableErrors {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}

	return false
}
