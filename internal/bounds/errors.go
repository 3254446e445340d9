package bounds

import (
	"errors"
	"fmt"

	"github.com/veribound/veribound/internal/layers"
)

// Error taxonomy of the propagation protocol. Every failure is a caller
// contract violation and is surfaced synchronously; nothing is swallowed,
// since an unnoticed unsupported layer would invalidate the soundness
// guarantee of the final bounds.
var (
	// ErrUnsupportedLayerKind reports a wrapper kind outside the closed
	// set handled by Propagate.
	ErrUnsupportedLayerKind = errors.New("unsupported layer kind")

	// ErrNotImplemented reports a layer kind that a concrete bounds
	// representation declines to propagate.
	ErrNotImplemented = errors.New("operation not implemented for this bounds representation")

	// ErrMultiSource reports a single-source operation invoked on
	// multi-source bounds, or a CombineWith call with a multi-source
	// operand.
	ErrMultiSource = errors.New("multiple inputs not supported here")

	// ErrRepresentationMismatch reports a CombineWith call across two
	// different concrete bounds representations.
	ErrRepresentationMismatch = errors.New("cannot combine different bounds representations")
)

// NotImplemented builds the error a representation returns for a layer
// kind it does not support, naming both for diagnostics.
func NotImplemented(representation string, kind layers.Kind) error {
	return fmt.Errorf("%w: %s cannot propagate %s", ErrNotImplemented, representation, kind)
}
