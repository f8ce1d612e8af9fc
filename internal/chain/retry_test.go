package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestWithRetryRecoversTransient(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, time.Millisecond, isTransient, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetryStopsOnFinalErrors(t *testing.T) {
	cases := []error{revertError{}, gobreaker.ErrOpenState, context.Canceled}
	for _, final := range cases {
		attempts := 0
		err := withRetry(context.Background(), 5, time.Millisecond, isTransient, func(context.Context) error {
			attempts++
			return final
		})
		if !errors.Is(err, final) && err != final {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 1 {
			t.Fatalf("%v: expected a single attempt, got %d", final, attempts)
		}
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 2, time.Millisecond, isTransient, func(context.Context) error {
		attempts++
		return errors.New("i/o timeout")
	})
	if err == nil || attempts != 3 {
		t.Fatalf("expected 3 attempts and an error, got %d %v", attempts, err)
	}
}
