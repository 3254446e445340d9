package layers

import (
	"fmt"

	"github.com/veribound/veribound/internal/tensor"
)

// Func is a monotonic tensor function: non-decreasing in every argument.
// Monotonicity is an unchecked caller contract; bound propagation evaluates
// the function only at interval endpoints, which is sound exactly when the
// contract holds.
type Func[T tensor.Float, B tensor.Backend] func(args ...*tensor.Tensor[T, B]) *tensor.Tensor[T, B]

// Wrapper describes one network layer as pure data: a kind tag plus the
// parameters that kind needs. Wrappers are read-only views into the
// underlying layer's parameters; consumers never mutate them.
type Wrapper[T tensor.Float, B tensor.Backend] struct {
	kind Kind

	// LinearFC / LinearConv2D
	weight *tensor.Tensor[T, B]
	bias   *tensor.Tensor[T, B]

	// LinearConv2D
	padding Padding
	stride  [2]int

	// Monotonic
	fn Func[T, B]

	// BatchNorm
	mean     *tensor.Tensor[T, B]
	variance *tensor.Tensor[T, B]
	scale    *tensor.Tensor[T, B]
	bnBias   *tensor.Tensor[T, B]
	epsilon  float64
}

// NewLinearFC describes a fully connected layer y = x @ w (+ b).
// Weight shape is [in_features, out_features]; bias may be nil.
func NewLinearFC[T tensor.Float, B tensor.Backend](w, b *tensor.Tensor[T, B]) *Wrapper[T, B] {
	if w == nil {
		panic("layers: LinearFC requires a weight tensor")
	}
	if len(w.Shape()) != 2 {
		panic(fmt.Sprintf("layers: LinearFC weight must be 2D [in,out], got shape %v", w.Shape()))
	}
	return &Wrapper[T, B]{kind: LinearFC, weight: w, bias: b}
}

// NewLinearConv2D describes a 2D convolution.
// Kernel shape is [out_channels, in_channels, kernel_h, kernel_w]; bias may
// be nil; stride is per spatial dimension [strideH, strideW].
func NewLinearConv2D[T tensor.Float, B tensor.Backend](w, b *tensor.Tensor[T, B], padding Padding, stride [2]int) *Wrapper[T, B] {
	if w == nil {
		panic("layers: LinearConv2D requires a kernel tensor")
	}
	if len(w.Shape()) != 4 {
		panic(fmt.Sprintf("layers: LinearConv2D kernel must be 4D [C_out,C_in,KH,KW], got shape %v", w.Shape()))
	}
	if stride[0] <= 0 || stride[1] <= 0 {
		panic(fmt.Sprintf("layers: invalid stride %v", stride))
	}
	if padding != Same && padding != Valid {
		panic(fmt.Sprintf("layers: unknown padding mode %q", string(padding)))
	}
	return &Wrapper[T, B]{kind: LinearConv2D, weight: w, bias: b, padding: padding, stride: stride}
}

// NewMonotonic describes an element-wise (or multi-argument) monotonic
// function layer.
func NewMonotonic[T tensor.Float, B tensor.Backend](fn Func[T, B]) *Wrapper[T, B] {
	if fn == nil {
		panic("layers: Monotonic requires a function")
	}
	return &Wrapper[T, B]{kind: Monotonic, fn: fn}
}

// NewBatchNorm describes a batch-normalization layer using its running
// statistics. scale and bias may be nil; epsilon is the numerical-stability
// term added to the variance.
func NewBatchNorm[T tensor.Float, B tensor.Backend](mean, variance, scale, bias *tensor.Tensor[T, B], epsilon float64) *Wrapper[T, B] {
	if mean == nil || variance == nil {
		panic("layers: BatchNorm requires mean and variance tensors")
	}
	if epsilon <= 0 {
		panic(fmt.Sprintf("layers: BatchNorm epsilon must be positive, got %v", epsilon))
	}
	return &Wrapper[T, B]{kind: BatchNorm, mean: mean, variance: variance, scale: scale, bnBias: bias, epsilon: epsilon}
}

// NewBatchFlatten describes a reshape to [batch, flattened_features].
func NewBatchFlatten[T tensor.Float, B tensor.Backend]() *Wrapper[T, B] {
	return &Wrapper[T, B]{kind: BatchFlatten}
}

// Kind returns the layer kind tag.
func (w *Wrapper[T, B]) Kind() Kind {
	return w.kind
}

// Weight returns the weight (LinearFC) or kernel (LinearConv2D) tensor.
func (w *Wrapper[T, B]) Weight() *tensor.Tensor[T, B] {
	return w.weight
}

// Bias returns the bias tensor, or nil if the layer has none.
func (w *Wrapper[T, B]) Bias() *tensor.Tensor[T, B] {
	return w.bias
}

// Padding returns the convolution padding mode.
func (w *Wrapper[T, B]) Padding() Padding {
	return w.padding
}

// Stride returns the per-spatial-dimension convolution stride.
func (w *Wrapper[T, B]) Stride() [2]int {
	return w.stride
}

// Func returns the monotonic function reference.
func (w *Wrapper[T, B]) Func() Func[T, B] {
	return w.fn
}

// Mean returns the batch-norm running mean.
func (w *Wrapper[T, B]) Mean() *tensor.Tensor[T, B] {
	return w.mean
}

// Variance returns the batch-norm running variance.
func (w *Wrapper[T, B]) Variance() *tensor.Tensor[T, B] {
	return w.variance
}

// Scale returns the batch-norm scale, or nil if the layer has none.
func (w *Wrapper[T, B]) Scale() *tensor.Tensor[T, B] {
	return w.scale
}

// BatchNormBias returns the batch-norm bias, or nil if the layer has none.
func (w *Wrapper[T, B]) BatchNormBias() *tensor.Tensor[T, B] {
	return w.bnBias
}

// Epsilon returns the batch-norm numerical-stability term.
func (w *Wrapper[T, B]) Epsilon() float64 {
	return w.epsilon
}

// String returns a short description of the wrapper.
func (w *Wrapper[T, B]) String() string {
	switch w.kind {
	case LinearFC:
		return fmt.Sprintf("LinearFC(weight=%v, bias=%v)", w.weight.Shape(), w.bias != nil)
	case LinearConv2D:
		return fmt.Sprintf("LinearConv2D(kernel=%v, padding=%s, stride=%v)", w.weight.Shape(), w.padding, w.stride)
	case BatchNorm:
		return fmt.Sprintf("BatchNorm(features=%v, epsilon=%g)", w.mean.Shape(), w.epsilon)
	default:
		return w.kind.String()
	}
}
