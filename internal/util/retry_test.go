package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	t.Run("immediate success", func(t *testing.T) {
		calls := 0
		result, err := Retry(3, func() (string, error) {
			calls++
			return "ok", nil
		})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if result != "ok" {
			t.Fatalf("expected ok, got %q", result)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("success after retries", func(t *testing.T) {
		calls := 0
		result, err := Retry(3, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 7, nil
		})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if result != 7 {
			t.Fatalf("expected 7, got %d", result)
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("persistent failure returns last error", func(t *testing.T) {
		calls := 0
		_, err := Retry(3, func() (int, error) {
			calls++
			return 0, errors.New("persistent")
		})
		if err == nil || err.Error() != "persistent" {
			t.Fatalf("expected persistent error, got %v", err)
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("non-positive maxTries means one attempt", func(t *testing.T) {
		for _, maxTries := range []int{0, -2} {
			calls := 0
			_, err := Retry(maxTries, func() (int, error) {
				calls++
				return 0, errors.New("fail")
			})
			if calls != 1 {
				t.Fatalf("maxTries=%d: expected 1 call, got %d", maxTries, calls)
			}
			if err == nil {
				t.Fatalf("maxTries=%d: expected error, got nil", maxTries)
			}
		}
	})
}

func TestRetryErr(t *testing.T) {
	t.Run("stops at first success", func(t *testing.T) {
		calls := 0
		err := RetryErr(5, func() error {
			calls++
			if calls < 2 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		err := RetryErr(4, func() error {
			calls++
			return errors.New("down")
		})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if calls != 4 {
			t.Fatalf("expected 4 calls, got %d", calls)
		}
	})
}

func TestRetryErrWithContext(t *testing.T) {
	t.Run("success after retries", func(t *testing.T) {
		calls := 0
		err := RetryErrWithContext(context.Background(), 3, func(ctx context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("canceled context stops before first attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
			calls++
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 0 {
			t.Fatalf("expected 0 calls, got %d", calls)
		}
	})

	t.Run("cancellation mid-retry stops immediately", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		calls := 0
		err := RetryErrWithContext(ctx, 10, func(ctx context.Context) error {
			calls++
			if calls == 2 {
				cancel()
			}
			return errors.New("transient")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("deadline error from fn propagates without retry", func(t *testing.T) {
		calls := 0
		err := RetryErrWithContext(context.Background(), 5, func(ctx context.Context) error {
			calls++
			return context.DeadlineExceeded
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context.DeadlineExceeded, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("expired deadline", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		err := RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
			t.Fatal("fn should not run")
			return nil
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context.DeadlineExceeded, got %v", err)
		}
	})
}

func TestRetryWithContext(t *testing.T) {
	t.Run("returns value on success", func(t *testing.T) {
		calls := 0
		result, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) ([]byte, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("transient")
			}
			return []byte("payload"), nil
		})
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if string(result) != "payload" {
			t.Fatalf("expected payload, got %q", result)
		}
	})

	t.Run("zero value with last error on exhaustion", func(t *testing.T) {
		result, err := RetryWithContext(context.Background(), 2, func(ctx context.Context) (int, error) {
			return 9, errors.New("down")
		})
		if err == nil || err.Error() != "down" {
			t.Fatalf("expected down error, got %v", err)
		}
		if result != 0 {
			t.Fatalf("expected zero result on failure, got %d", result)
		}
	})

	t.Run("canceled context returns zero value", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := RetryWithContext(ctx, 3, func(ctx context.Context) (string, error) {
			return "never", nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result != "" {
			t.Fatalf("expected empty result, got %q", result)
		}
	})
}
