package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/panorama/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, time.Second, p.Initial)
	assert.Equal(t, 30*time.Second, p.Max)
	assert.Equal(t, 2, p.MaxRetries)
}

func TestFromConfigClampsInitial(t *testing.T) {
	p := FromConfig(config.RetryConfig{Backoff: config.RetryBackoffFixed, Initial: 5 * time.Second, Max: 2 * time.Second, MaxRetries: 5})
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, config.RetryBackoffFixed, p.Mode)
	assert.Equal(t, 5, p.MaxRetries)
}

func TestFromConfigUnknownModeKeepsLinear(t *testing.T) {
	p := FromConfig(config.RetryConfig{Backoff: "weird"})
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	fixed := Policy{Mode: config.RetryBackoffFixed, Initial: 100 * ms, Max: 500 * ms}
	linear := Policy{Mode: config.RetryBackoffLinear, Initial: 100 * ms, Max: 250 * ms}
	exp := Policy{Mode: config.RetryBackoffExponential, Initial: 50 * ms, Max: 160 * ms}

	cases := []struct {
		name    string
		p       Policy
		attempt int
		want    time.Duration
	}{
		{"fixed 1", fixed, 1, 100 * ms},
		{"fixed 3", fixed, 3, 100 * ms},
		{"linear 1", linear, 1, 100 * ms},
		{"linear 2", linear, 2, 200 * ms},
		{"linear capped", linear, 3, 250 * ms},
		{"exp 1", exp, 1, 50 * ms},
		{"exp 2", exp, 2, 100 * ms},
		{"exp capped", exp, 3, 160 * ms},
		{"exp overflow", exp, 90, 160 * ms},
		{"zero attempt", linear, 0, 0},
		{"negative attempt", linear, -1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.p.Delay(tc.attempt))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
	assert.NoError(t, DefaultPolicy().Validate())
}

func fastPolicy(retries int) Policy {
	return Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: retries}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retried []int
	err := Do(context.Background(), fastPolicy(3), "clone", nil,
		func(attempt int, _ error) { retried = append(retried, attempt) },
		func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("i/o timeout")
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	perm := errors.New("authentication required")
	calls := 0
	err := Do(context.Background(), fastPolicy(5), "clone",
		func(err error) bool { return errors.Is(err, perm) }, nil,
		func(context.Context) error { calls++; return perm })
	assert.Same(t, perm, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsRetries(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), fastPolicy(2), "fetch", nil, nil,
		func(context.Context) error { calls++; return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "fetch failed after 2 retries")
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Mode: config.RetryBackoffFixed, Initial: time.Hour, Max: time.Hour, MaxRetries: 1}
	err := Do(ctx, p, "fetch", nil, func(int, error) { cancel() },
		func(context.Context) error { return errors.New("transient") })
	assert.ErrorIs(t, err, context.Canceled)
}
