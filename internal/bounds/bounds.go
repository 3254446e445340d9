// Package bounds implements certified bound propagation through network
// layers.
//
// A Bounds value represents a sound range of possible tensor values. Given
// the wrapper sequence describing a network, propagating input bounds
// through every wrapper yields output bounds guaranteed to contain the true
// output for any input inside the input range. Interval is the concrete
// axis-aligned box representation; tighter representations can be added by
// implementing the same interface.
package bounds

import (
	"fmt"

	"github.com/veribound/veribound/internal/layers"
	"github.com/veribound/veribound/internal/tensor"
)

// Bounds is the contract every concrete bounds representation implements:
// one handler per layer kind plus source combination. Propagation never
// mutates the receiver; each handler returns a fresh value.
//
// A representation that does not support a given kind returns the error
// built by NotImplemented for that kind.
type Bounds[T tensor.Float, B tensor.Backend] interface {
	// PropagateLinear propagates through a fully connected layer
	// y = x @ w (+ b). Weight shape is [in_features, out_features].
	PropagateLinear(w, b *tensor.Tensor[T, B]) (Bounds[T, B], error)

	// PropagateConv2D propagates through a 2D convolution with the given
	// kernel [C_out, C_in, KH, KW], optional bias [C_out], padding mode
	// and per-spatial-dimension stride.
	PropagateConv2D(w, b *tensor.Tensor[T, B], padding layers.Padding, stride [2]int) (Bounds[T, B], error)

	// PropagateMonotonic propagates through a function that is monotonic
	// non-decreasing in every argument (unchecked caller contract).
	PropagateMonotonic(fn layers.Func[T, B]) (Bounds[T, B], error)

	// PropagateBatchNorm propagates through batch normalization described
	// by its running statistics, optional scale/bias and epsilon.
	PropagateBatchNorm(mean, variance, scale, bias *tensor.Tensor[T, B], epsilon float64) (Bounds[T, B], error)

	// PropagateBatchFlatten propagates through a reshape to
	// [batch, flattened_features].
	PropagateBatchFlatten() (Bounds[T, B], error)

	// CombineWith produces bounds tracking multiple independent input
	// sources, for networks whose inputs are merged downstream by a
	// monotonic combining function. Fails with ErrRepresentationMismatch
	// if other is a different concrete representation.
	CombineWith(other Bounds[T, B]) (Bounds[T, B], error)
}

// Propagate dispatches bounds through one layer wrapper.
// The kind set is closed; any other kind fails with
// ErrUnsupportedLayerKind.
func Propagate[T tensor.Float, B tensor.Backend](b Bounds[T, B], w *layers.Wrapper[T, B]) (Bounds[T, B], error) {
	switch w.Kind() {
	case layers.LinearFC:
		return b.PropagateLinear(w.Weight(), w.Bias())
	case layers.LinearConv2D:
		return b.PropagateConv2D(w.Weight(), w.Bias(), w.Padding(), w.Stride())
	case layers.Monotonic:
		return b.PropagateMonotonic(w.Func())
	case layers.BatchNorm:
		return b.PropagateBatchNorm(w.Mean(), w.Variance(), w.Scale(), w.BatchNormBias(), w.Epsilon())
	case layers.BatchFlatten:
		return b.PropagateBatchFlatten()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLayerKind, w.Kind())
	}
}

// PropagateSequence folds bounds through an ordered wrapper sequence,
// returning the final bounds. The error names the failing layer position.
func PropagateSequence[T tensor.Float, B tensor.Backend](b Bounds[T, B], ws []*layers.Wrapper[T, B]) (Bounds[T, B], error) {
	for i, w := range ws {
		next, err := Propagate(b, w)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, w.Kind(), err)
		}
		b = next
	}
	return b, nil
}
