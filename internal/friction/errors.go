package friction

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and evaluation.
var (
	// ErrZeroStribeckVelocity indicates a Stribeck velocity of zero, which
	// would divide by zero inside the Stribeck exponential.
	ErrZeroStribeckVelocity = errors.New("friction: stribeck velocity must be nonzero")

	// ErrDisplacementOrder indicates breakaway displacement not below the
	// maximum bristle displacement.
	ErrDisplacementOrder = errors.New("friction: breakaway displacement must be below max bristle displacement")
)

// ParamError reports a model parameter violating a hard invariant. It is
// fatal: evaluation and calibration refuse to start with an invalid model.
type ParamError struct {
	Kind    Kind
	Wrapped error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Wrapped.Error())
}

func (e *ParamError) Unwrap() error {
	return e.Wrapped
}

// ConfigError reports invalid call inputs detected before any solve starts
// (mismatched array lengths, malformed time spans, bad encoded vectors).
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "friction: " + e.Msg
}

// Configf builds a ConfigError.
func Configf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
