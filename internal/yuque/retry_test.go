package yuque

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
)

func fastRetrier(maxRetries int) *Retrier {
	return NewRetrier(RetrierOptions{
		MaxRetries:      maxRetries,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
	})
}

func TestNewRetrier_Defaults(t *testing.T) {
	r := NewRetrier(RetrierOptions{MaxRetries: -1})

	assert.Equal(t, 0, r.maxRetries)
	assert.Equal(t, 1*time.Second, r.initialInterval)
	assert.Equal(t, 30*time.Second, r.maxInterval)
	assert.Equal(t, 2.0, r.multiplier)
}

func TestRetrier_Retry_SucceedsFirstTry(t *testing.T) {
	attempts := 0
	err := fastRetrier(3).Retry(context.Background(), func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetrier_Retry_PermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	attempts := 0

	err := fastRetrier(3).Retry(context.Background(), func() error {
		attempts++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetrier_Retry_RetryableEventuallySucceeds(t *testing.T) {
	attempts := 0
	err := fastRetrier(3).Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &domain.RetryableError{Err: errors.New("try again")}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_Retry_Exhausts(t *testing.T) {
	attempts := 0
	err := fastRetrier(2).Retry(context.Background(), func() error {
		attempts++
		return &domain.RetryableError{Err: errors.New("still down")}
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_ZeroRetriesSingleAttempt(t *testing.T) {
	attempts := 0
	err := fastRetrier(0).Retry(context.Background(), func() error {
		attempts++
		return &domain.RetryableError{Err: errors.New("down")}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithValue(t *testing.T) {
	attempts := 0
	result, err := RetryWithValue(context.Background(), fastRetrier(3), func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", &domain.RetryableError{Err: errors.New("flaky")}
		}
		return "payload", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", result)
	assert.Equal(t, 2, attempts)
}

func TestRetryWithValue_ReturnsOriginalError(t *testing.T) {
	fetchErr := &domain.FetchError{URL: "https://example.com", StatusCode: 404, Err: errors.New("HTTP 404")}

	_, err := RetryWithValue(context.Background(), fastRetrier(3), func() ([]byte, error) {
		return nil, fetchErr
	})

	// The caller sees the underlying error, not a backoff wrapper
	var got *domain.FetchError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 404, got.StatusCode)
}

func TestRetryWithValue_HonorsRetryAfter(t *testing.T) {
	attempts := 0
	start := time.Now()

	result, err := RetryWithValue(context.Background(), fastRetrier(1), func() (string, error) {
		attempts++
		if attempts == 1 {
			return "", &domain.RetryableError{
				Err:        errors.New("slow down"),
				RetryAfter: 60 * time.Millisecond,
			}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, attempts)
	// The server's delay outweighs the 5ms exponential interval.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRetryWithValue_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	_, err := RetryWithValue(ctx, fastRetrier(10), func() (int, error) {
		attempts++
		cancel()
		return 0, &domain.RetryableError{Err: errors.New("interrupted")}
	})

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 2)
}

func TestShouldRetryStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, false},
		{400, false},
		{401, false},
		{404, false},
		{429, true},
		{500, false},
		{502, true},
		{503, true},
		{504, true},
		{520, true},
		{525, true},
		{530, true},
		{531, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldRetryStatus(tt.status), "status %d", tt.status)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{" 10 ", 10 * time.Second},
		{"0", 0},
		{"-3", 0},
		{"abc", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRetryAfter(tt.input), "input %q", tt.input)
	}
}
