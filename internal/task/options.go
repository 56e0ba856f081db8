package task

import (
	"fmt"
	"strings"
)

// Options controls how an orchestrated action spreads its items over workers.
type Options struct {
	// RunInParallel selects the validate-then-distribute strategy.
	RunInParallel bool

	// MaxConcurrent is the number of item workers in parallel mode.
	MaxConcurrent int

	// RequestsPerSecond paces item dispatch in parallel mode. Zero disables pacing.
	RequestsPerSecond float64

	// SkipCompletedInLinear makes the linear strategy consult AlreadyCompleted
	// before each item. Off by default.
	SkipCompletedInLinear bool
}

const (
	defaultMaxConcurrent     = 8
	defaultRequestsPerSecond = 16
)

// LinearOptions processes items one at a time in enumeration order.
func LinearOptions() Options {
	return Options{MaxConcurrent: 1}
}

// DefaultParallelOptions uses 8 workers and 16 dispatches per second.
func DefaultParallelOptions() Options {
	return Options{
		RunInParallel:     true,
		MaxConcurrent:     defaultMaxConcurrent,
		RequestsPerSecond: defaultRequestsPerSecond,
	}
}

// FasterOptions doubles the default parallelism.
func FasterOptions() Options {
	return scaled(2)
}

// ExtremeOptions multiplies the default parallelism by eight.
func ExtremeOptions() Options {
	return scaled(8)
}

func scaled(factor int) Options {
	o := DefaultParallelOptions()
	o.MaxConcurrent *= factor
	o.RequestsPerSecond *= float64(factor)
	return o
}

// Mode names accepted by OptionsForMode.
const (
	ModeLinear   = "linear"
	ModeParallel = "parallel"
	ModeFaster   = "faster"
	ModeExtreme  = "extreme"
)

// OptionsForMode returns the preset registered under mode.
func OptionsForMode(mode string) (Options, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeLinear:
		return LinearOptions(), nil
	case ModeParallel, "":
		return DefaultParallelOptions(), nil
	case ModeFaster:
		return FasterOptions(), nil
	case ModeExtreme:
		return ExtremeOptions(), nil
	default:
		return Options{}, fmt.Errorf("unknown orchestration mode %q", mode)
	}
}

// Workers returns the effective worker count, never less than one.
func (o Options) Workers() int {
	if o.MaxConcurrent <= 0 {
		return 1
	}
	return o.MaxConcurrent
}
