package qerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	cfg := Config("statevec.Apply", "wire %d out of range [0, %d)", 5, 3)
	assert.True(t, errors.Is(cfg, ErrConfig))
	assert.False(t, errors.Is(cfg, ErrState))
	assert.Contains(t, cfg.Error(), "ConfigError")
	assert.Contains(t, cfg.Error(), "wire 5 out of range")

	st := State("translate.FromDevice", "device is %s", "BUILDING")
	assert.True(t, errors.Is(st, ErrState))

	wrapped := fmt.Errorf("forward: %w", st)
	assert.True(t, errors.Is(wrapped, ErrState))
}

func TestBackendRetryable(t *testing.T) {
	cause := errors.New("connection reset")
	err := Backend("backend.Submit", true, cause)

	assert.True(t, errors.Is(err, ErrBackend))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.True(t, IsRetryable(fmt.Errorf("run: %w", err)))

	assert.False(t, IsRetryable(Backendf("backend.Submit", false, "shots %d over budget", 10)))
	assert.False(t, IsRetryable(Config("x", "y")))
	assert.False(t, IsRetryable(cause))
}

func TestWarnings(t *testing.T) {
	w := NewWarnings()
	assert.Equal(t, 0, w.Total())
	assert.Empty(t, w.Summary())

	w.Add(Warning{Source: "device", Drift: 1e-7})
	w.Add(Warning{Source: "device", Drift: 3e-7})
	w.Add(Warning{Source: "noise", Drift: 2e-8})

	assert.Equal(t, 3, w.Total())
	summary := w.Summary()
	assert.Len(t, summary, 2)
	assert.Contains(t, summary[0], "device: 2 warnings")
	assert.Contains(t, summary[0], "3.000e-07")

	w.Report(nil)
	w.Reset()
	assert.Equal(t, 0, w.Total())
}
