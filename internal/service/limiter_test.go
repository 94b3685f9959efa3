package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := NewLimiter(2, time.Second)
	ctx := context.Background()

	if st := l.Status(); st.Active != 0 || st.Available != 2 || st.MaxConcurrent != 2 {
		t.Errorf("initial Status = %+v", st)
	}

	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
	}
	if st := l.Status(); st.Active != 2 || st.Available != 0 {
		t.Errorf("full Status = %+v", st)
	}

	l.Release()
	if st := l.Status(); st.Active != 1 || st.Available != 1 {
		t.Errorf("after Release, Status = %+v", st)
	}
	l.Release()
}

func TestLimiter_Timeout(t *testing.T) {
	l := NewLimiter(1, 20*time.Millisecond)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer l.Release()

	if err := l.Acquire(context.Background()); !errors.Is(err, ErrTooManyParses) {
		t.Errorf("Acquire on full limiter = %v, want ErrTooManyParses", err)
	}
}

func TestLimiter_ContextCancelled(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire = %v, want context.Canceled", err)
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	if got := l.Status().MaxConcurrent; got != 5 {
		t.Errorf("MaxConcurrent = %d, want 5", got)
	}
}

func TestLimiter_WaitForDrain(t *testing.T) {
	l := NewLimiter(1, time.Second)
	if err := l.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("idle WaitForDrain = %v", err)
	}

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain = %v", err)
	}
}

func TestCountingReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr error
		wantN   int64
	}{
		{"no limit", "hello world", 0, nil, 11},
		{"under limit", "hello", 10, nil, 5},
		{"at limit", "0123456789", 10, nil, 10},
		{"over limit", "0123456789A", 10, ErrFileTooLarge, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCountingReader(strings.NewReader(tt.input), tt.limit)
			_, err := io.ReadAll(r)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadAll error = %v, want %v", err, tt.wantErr)
			}
			if got := r.BytesRead(); got != tt.wantN {
				t.Errorf("BytesRead() = %d, want %d", got, tt.wantN)
			}
		})
	}
}
