package bounds

import (
	"fmt"

	"github.com/veribound/veribound/internal/layers"
	"github.com/veribound/veribound/internal/tensor"
)

// Interval is the axis-aligned box representation of bounds: a per-element
// [lower, upper] range. Linear and affine layers are propagated exactly via
// the center/radius decomposition; the bias never widens the interval and
// the absolute-valued weights give the worst-case element-wise deviation
// regardless of weight sign.
//
// An Interval is either singleton (one lower/upper tensor pair) or
// multi-source (one pair per combined input, in combination order). Only
// CombineWith and PropagateMonotonic accept multi-source intervals; every
// other operation fails fast with ErrMultiSource.
type Interval[T tensor.Float, B tensor.Backend] struct {
	lower []*tensor.Tensor[T, B]
	upper []*tensor.Tensor[T, B]
}

// NewInterval creates singleton interval bounds from lower and upper
// tensors. The tensors must have equal shapes and satisfy lower <= upper
// element-wise.
func NewInterval[T tensor.Float, B tensor.Backend](lower, upper *tensor.Tensor[T, B]) (*Interval[T, B], error) {
	if lower == nil || upper == nil {
		return nil, fmt.Errorf("interval bounds require both lower and upper tensors")
	}
	if !lower.Shape().Equal(upper.Shape()) {
		return nil, fmt.Errorf("lower shape %v != upper shape %v", lower.Shape(), upper.Shape())
	}
	lo, up := lower.Data(), upper.Data()
	for i := range lo {
		if lo[i] > up[i] {
			return nil, fmt.Errorf("lower > upper at element %d: %v > %v", i, lo[i], up[i])
		}
	}
	return singleton(lower, upper), nil
}

func singleton[T tensor.Float, B tensor.Backend](lower, upper *tensor.Tensor[T, B]) *Interval[T, B] {
	return &Interval[T, B]{
		lower: []*tensor.Tensor[T, B]{lower},
		upper: []*tensor.Tensor[T, B]{upper},
	}
}

// Lower returns the lower bound tensor of singleton bounds.
// Panics on multi-source bounds; use LowerSources there.
func (iv *Interval[T, B]) Lower() *tensor.Tensor[T, B] {
	if iv.IsMultiSource() {
		panic("bounds: Lower on multi-source interval, use LowerSources")
	}
	return iv.lower[0]
}

// Upper returns the upper bound tensor of singleton bounds.
// Panics on multi-source bounds; use UpperSources there.
func (iv *Interval[T, B]) Upper() *tensor.Tensor[T, B] {
	if iv.IsMultiSource() {
		panic("bounds: Upper on multi-source interval, use UpperSources")
	}
	return iv.upper[0]
}

// LowerSources returns the per-source lower bound tensors in combination
// order.
func (iv *Interval[T, B]) LowerSources() []*tensor.Tensor[T, B] {
	return iv.lower
}

// UpperSources returns the per-source upper bound tensors in combination
// order.
func (iv *Interval[T, B]) UpperSources() []*tensor.Tensor[T, B] {
	return iv.upper
}

// IsMultiSource reports whether the bounds track more than one input
// source.
func (iv *Interval[T, B]) IsMultiSource() bool {
	return len(iv.lower) > 1
}

// ensureSingleton guards operations that are only defined on single-source
// bounds.
func (iv *Interval[T, B]) ensureSingleton() error {
	if iv.IsMultiSource() {
		return ErrMultiSource
	}
	return nil
}

// CombineWith appends other as an additional input source, preserving
// per-source order for later positional argument-passing into a monotonic
// combining function. The operand must be a singleton Interval.
func (iv *Interval[T, B]) CombineWith(other Bounds[T, B]) (Bounds[T, B], error) {
	o, ok := other.(*Interval[T, B])
	if !ok {
		return nil, fmt.Errorf("%w: %T with %T", ErrRepresentationMismatch, iv, other)
	}
	if o.IsMultiSource() {
		return nil, fmt.Errorf("%w: cannot combine multi-source bounds", ErrMultiSource)
	}

	lower := make([]*tensor.Tensor[T, B], 0, len(iv.lower)+1)
	upper := make([]*tensor.Tensor[T, B], 0, len(iv.upper)+1)
	lower = append(append(lower, iv.lower...), o.lower[0])
	upper = append(append(upper, iv.upper...), o.upper[0])
	return &Interval[T, B]{lower: lower, upper: upper}, nil
}

// PropagateLinear propagates through y = x @ w (+ b) via center/radius:
// the center goes through the affine map, the radius through |w| alone.
func (iv *Interval[T, B]) PropagateLinear(w, b *tensor.Tensor[T, B]) (Bounds[T, B], error) {
	if err := iv.ensureSingleton(); err != nil {
		return nil, err
	}

	c, r := iv.centerRadius()
	c = c.MatMul(w)
	if b != nil {
		c = c.Add(b)
	}
	r = r.MatMul(w.Abs())
	return singleton(c.Sub(r), c.Add(r)), nil
}

// PropagateConv2D propagates through a convolution with the same
// center/radius decomposition; the radius is convolved with the
// absolute-valued kernel.
func (iv *Interval[T, B]) PropagateConv2D(w, b *tensor.Tensor[T, B], padding layers.Padding, stride [2]int) (Bounds[T, B], error) {
	if err := iv.ensureSingleton(); err != nil {
		return nil, err
	}

	inShape := iv.lower[0].Shape()
	if len(inShape) != 4 {
		return nil, fmt.Errorf("conv2d bounds require 4D [N,C,H,W] tensors, got shape %v", inShape)
	}
	kShape := w.Shape()
	pads, err := padding.Resolve(inShape[2], inShape[3], kShape[2], kShape[3], stride[0], stride[1])
	if err != nil {
		return nil, err
	}

	c, r := iv.centerRadius()
	backend := c.Backend()

	cOut := tensor.New[T, B](backend.Conv2D(c.Raw(), w.Raw(), stride, pads), backend)
	if b != nil {
		cOut = cOut.Add(b.Reshape(1, kShape[0], 1, 1))
	}
	rOut := tensor.New[T, B](backend.Conv2D(r.Raw(), w.Abs().Raw(), stride, pads), backend)
	return singleton(cOut.Sub(rOut), cOut.Add(rOut)), nil
}

// PropagateMonotonic evaluates fn at the interval endpoints: once on the
// lower bounds and once on the upper bounds. For multi-source bounds the
// per-source tensors are passed positionally, and the result is a fresh
// singleton interval. Sound exactly when fn is monotonic non-decreasing in
// every argument.
func (iv *Interval[T, B]) PropagateMonotonic(fn layers.Func[T, B]) (Bounds[T, B], error) {
	return singleton(fn(iv.lower...), fn(iv.upper...)), nil
}

// PropagateBatchNorm folds the batch-norm parameters into an equivalent
// element-wise affine transform and applies the linear center/radius
// strategy. The multiplier's sign is unknown in advance (scale may be
// negative), so the radius uses its absolute value.
func (iv *Interval[T, B]) PropagateBatchNorm(mean, variance, scale, bias *tensor.Tensor[T, B], epsilon float64) (Bounds[T, B], error) {
	if err := iv.ensureSingleton(); err != nil {
		return nil, err
	}

	multiplier := variance.AddScalar(T(epsilon)).Rsqrt()
	if scale != nil {
		multiplier = multiplier.Mul(scale)
	}
	shift := multiplier.Mul(mean).MulScalar(-1)
	if bias != nil {
		shift = shift.Add(bias)
	}

	c, r := iv.centerRadius()
	c = c.Mul(multiplier).Add(shift)
	r = r.Mul(multiplier.Abs())
	return singleton(c.Sub(r), c.Add(r)), nil
}

// PropagateBatchFlatten reshapes lower and upper independently to
// [batch, flattened_features]. Flattening is a bijective reindexing, so
// bounds are preserved element-wise.
func (iv *Interval[T, B]) PropagateBatchFlatten() (Bounds[T, B], error) {
	if err := iv.ensureSingleton(); err != nil {
		return nil, err
	}

	flat := iv.lower[0].Shape().Flatten2D()
	return singleton(iv.lower[0].Reshape(flat...), iv.upper[0].Reshape(flat...)), nil
}

// centerRadius decomposes singleton bounds into midpoint and half-width.
func (iv *Interval[T, B]) centerRadius() (c, r *tensor.Tensor[T, B]) {
	l, u := iv.lower[0], iv.upper[0]
	c = l.Add(u).MulScalar(0.5)
	r = u.Sub(l).MulScalar(0.5)
	return c, r
}

// String returns a short description of the interval bounds.
func (iv *Interval[T, B]) String() string {
	if iv.IsMultiSource() {
		return fmt.Sprintf("Interval(multi-source, %d sources)", len(iv.lower))
	}
	return fmt.Sprintf("Interval%v", iv.lower[0].Shape())
}
