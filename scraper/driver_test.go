package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/leadscout/models"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, models.ErrCodeNavigationTimeout},
		{"canceled", context.Canceled, models.ErrCodeNavigationTimeout},
		{"wrapped deadline", errors.Join(errors.New("navigate"), context.DeadlineExceeded), models.ErrCodeNavigationTimeout},
		{"other", errors.New("no such element"), models.ErrCodeElementNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.err, "msg")
			if got.Code != tt.want {
				t.Errorf("code = %s, want %s", got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("wrapped cause lost")
			}
		})
	}
}

func TestJitterSleep_Bounds(t *testing.T) {
	start := time.Now()
	if err := jitterSleep(context.Background(), 10*time.Millisecond, 30*time.Millisecond); err != nil {
		t.Fatalf("jitterSleep returned error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 10*time.Millisecond {
		t.Errorf("slept %v, below the minimum", elapsed)
	}
}

func TestJitterSleep_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := jitterSleep(ctx, time.Second, 2*time.Second); err == nil {
		t.Fatal("canceled context must interrupt the sleep")
	}
}

func TestJitterSleep_EqualBounds(t *testing.T) {
	// min == max must not panic on a zero-width jitter interval.
	if err := jitterSleep(context.Background(), time.Millisecond, time.Millisecond); err != nil {
		t.Fatalf("jitterSleep returned error: %v", err)
	}
}
