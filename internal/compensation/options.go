package compensation

import (
	"time"

	"github.com/xkilldash9x/steadyaim/internal/config"
)

// Options are the loop's fixed pacing parameters.
type Options struct {
	// IdlePoll is the sleep between ticks while not compensating.
	IdlePoll time.Duration
	// ErrorBackoff is the sleep after a failed tick.
	ErrorBackoff time.Duration
	// EmptyPatternBackoff is the sleep when the pattern has no steps.
	EmptyPatternBackoff time.Duration
	// MalformedStepBackoff is the sleep when the selected step lacks dx or dy.
	MalformedStepBackoff time.Duration
	// JoinTimeout bounds how long Stop waits for the loop to exit.
	JoinTimeout time.Duration

	ErrorLogRate  float64 // tick-error log lines per second
	ErrorLogBurst int
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.NewDefaultConfig().Loop)
}

func OptionsFromConfig(c config.LoopConfig) Options {
	return Options{
		IdlePoll:             c.IdlePoll,
		ErrorBackoff:         c.ErrorBackoff,
		EmptyPatternBackoff:  c.EmptyPatternBackoff,
		MalformedStepBackoff: c.MalformedStepBackoff,
		JoinTimeout:          c.JoinTimeout,
		ErrorLogRate:         c.ErrorLogRate,
		ErrorLogBurst:        c.ErrorLogBurst,
	}
}
