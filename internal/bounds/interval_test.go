package bounds

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veribound/veribound/internal/backend/cpu"
	"github.com/veribound/veribound/internal/layers"
	"github.com/veribound/veribound/internal/tensor"
)

type cpuB = *cpu.CPUBackend

func makeTensor(t *testing.T, data []float64, shape tensor.Shape) *tensor.Tensor[float64, cpuB] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	require.NoError(t, err)
	return x
}

func makeInterval(t *testing.T, lower, upper []float64, shape tensor.Shape) *Interval[float64, cpuB] {
	t.Helper()
	iv, err := NewInterval(makeTensor(t, lower, shape), makeTensor(t, upper, shape))
	require.NoError(t, err)
	return iv
}

func requireInterval(t *testing.T, b Bounds[float64, cpuB]) *Interval[float64, cpuB] {
	t.Helper()
	iv, ok := b.(*Interval[float64, cpuB])
	require.True(t, ok, "expected *Interval, got %T", b)
	return iv
}

func TestNewInterval_Validation(t *testing.T) {
	backend := cpu.New()
	a := tensor.Ones[float64](tensor.Shape{2}, backend)
	b := tensor.Ones[float64](tensor.Shape{3}, backend)

	_, err := NewInterval(a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape")

	lo := makeTensor(t, []float64{2, 0}, tensor.Shape{2})
	up := makeTensor(t, []float64{1, 1}, tensor.Shape{2})
	_, err = NewInterval(lo, up)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lower > upper")

	_, err = NewInterval[float64, cpuB](nil, nil)
	require.Error(t, err)
}

func TestLinear_Tightness(t *testing.T) {
	// 1x1 layer, w=2, b=1, input [1,3]: center 2, radius 1 ->
	// output center 5, radius 2 -> [3, 7].
	iv := makeInterval(t, []float64{1}, []float64{3}, tensor.Shape{1, 1})
	w := makeTensor(t, []float64{2}, tensor.Shape{1, 1})
	b := makeTensor(t, []float64{1}, tensor.Shape{1})

	out, err := iv.PropagateLinear(w, b)
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.InDelta(t, 3.0, result.Lower().Data()[0], 1e-12)
	assert.InDelta(t, 7.0, result.Upper().Data()[0], 1e-12)
}

func TestLinear_NegativeWeight(t *testing.T) {
	// w=-2, b=0, input [1,3]: center -4, radius 2 -> [-6, -2].
	iv := makeInterval(t, []float64{1}, []float64{3}, tensor.Shape{1, 1})
	w := makeTensor(t, []float64{-2}, tensor.Shape{1, 1})

	out, err := iv.PropagateLinear(w, nil)
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.InDelta(t, -6.0, result.Lower().Data()[0], 1e-12)
	assert.InDelta(t, -2.0, result.Upper().Data()[0], 1e-12)
	assert.LessOrEqual(t, result.Lower().Data()[0], result.Upper().Data()[0])
}

func TestLinear_BiasDoesNotWidenRadius(t *testing.T) {
	iv := makeInterval(t, []float64{-1, 0}, []float64{1, 2}, tensor.Shape{1, 2})
	w := makeTensor(t, []float64{1, -3, 2, 0.5}, tensor.Shape{2, 2})

	noBias, err := iv.PropagateLinear(w, nil)
	require.NoError(t, err)
	withBias, err := iv.PropagateLinear(w, makeTensor(t, []float64{10, -10}, tensor.Shape{2}))
	require.NoError(t, err)

	a := requireInterval(t, noBias)
	b := requireInterval(t, withBias)
	for i := range a.Lower().Data() {
		widthA := a.Upper().Data()[i] - a.Lower().Data()[i]
		widthB := b.Upper().Data()[i] - b.Lower().Data()[i]
		assert.InDelta(t, widthA, widthB, 1e-12)
	}
}

func TestLinear_SoundnessSampling(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	lower := []float64{-1, 0.5, -2}
	upper := []float64{1, 2, -0.5}
	iv := makeInterval(t, lower, upper, tensor.Shape{1, 3})

	wData := make([]float64, 3*4)
	for i := range wData {
		wData[i] = rng.NormFloat64()
	}
	bData := []float64{0.1, -0.2, 0.3, -0.4}
	w := makeTensor(t, wData, tensor.Shape{3, 4})
	b := makeTensor(t, bData, tensor.Shape{4})

	out, err := iv.PropagateLinear(w, b)
	require.NoError(t, err)
	result := requireInterval(t, out)

	for trial := 0; trial < 200; trial++ {
		xData := make([]float64, 3)
		for i := range xData {
			xData[i] = lower[i] + rng.Float64()*(upper[i]-lower[i])
		}
		y := makeTensor(t, xData, tensor.Shape{1, 3}).MatMul(w).Add(b)

		for i, v := range y.Data() {
			assert.GreaterOrEqual(t, v, result.Lower().Data()[i]-1e-9,
				"trial %d output %d below lower bound", trial, i)
			assert.LessOrEqual(t, v, result.Upper().Data()[i]+1e-9,
				"trial %d output %d above upper bound", trial, i)
		}
	}
}

func TestConv2D_ExactSmallCase(t *testing.T) {
	// Single 1x2 input with bounds [0,2] per cell, 1x2 sum kernel with a
	// negative tap: y = x0 - x1, so y in [-2, 2]; bias shifts to [-1, 3].
	iv := makeInterval(t, []float64{0, 0}, []float64{2, 2}, tensor.Shape{1, 1, 1, 2})
	w := makeTensor(t, []float64{1, -1}, tensor.Shape{1, 1, 1, 2})
	b := makeTensor(t, []float64{1}, tensor.Shape{1})

	out, err := iv.PropagateConv2D(w, b, layers.Valid, [2]int{1, 1})
	require.NoError(t, err)

	result := requireInterval(t, out)
	require.True(t, result.Lower().Shape().Equal(tensor.Shape{1, 1, 1, 1}))
	assert.InDelta(t, -1.0, result.Lower().Data()[0], 1e-12)
	assert.InDelta(t, 3.0, result.Upper().Data()[0], 1e-12)
}

func TestConv2D_SamePaddingShape(t *testing.T) {
	// SAME with stride 1 preserves the spatial size.
	iv := makeInterval(t,
		[]float64{0, 0, 0, 0, 0, 0, 0, 0, 0},
		[]float64{1, 1, 1, 1, 1, 1, 1, 1, 1},
		tensor.Shape{1, 1, 3, 3})
	w := makeTensor(t, []float64{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	out, err := iv.PropagateConv2D(w, nil, layers.Same, [2]int{1, 1})
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.True(t, result.Lower().Shape().Equal(tensor.Shape{1, 1, 3, 3}),
		"got shape %v", result.Lower().Shape())
}

func TestConv2D_SoundnessSampling(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	backend := cpu.New()

	shape := tensor.Shape{1, 2, 3, 3}
	n := shape.NumElements()
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range lower {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		lower[i], upper[i] = min(a, b), max(a, b)
	}
	iv := makeInterval(t, lower, upper, shape)

	kData := make([]float64, 2*2*2*2)
	for i := range kData {
		kData[i] = rng.NormFloat64()
	}
	kernel := makeTensor(t, kData, tensor.Shape{2, 2, 2, 2})
	bias := makeTensor(t, []float64{0.5, -0.5}, tensor.Shape{2})

	stride := [2]int{1, 1}
	out, err := iv.PropagateConv2D(kernel, bias, layers.Valid, stride)
	require.NoError(t, err)
	result := requireInterval(t, out)

	for trial := 0; trial < 100; trial++ {
		xData := make([]float64, n)
		for i := range xData {
			xData[i] = lower[i] + rng.Float64()*(upper[i]-lower[i])
		}
		x := makeTensor(t, xData, shape)
		raw := backend.Conv2D(x.Raw(), kernel.Raw(), stride, [4]int{})
		y := tensor.New[float64, cpuB](raw, backend).Add(bias.Reshape(1, 2, 1, 1))

		for i, v := range y.Data() {
			assert.GreaterOrEqual(t, v, result.Lower().Data()[i]-1e-9,
				"trial %d output %d below lower bound", trial, i)
			assert.LessOrEqual(t, v, result.Upper().Data()[i]+1e-9,
				"trial %d output %d above upper bound", trial, i)
		}
	}
}

func TestBatchNorm_IdentityFold(t *testing.T) {
	// mean=0, variance=3, epsilon=1, scale=2, bias=0:
	// multiplier = 2/sqrt(4) = 1, shift = 0 -> identity.
	iv := makeInterval(t, []float64{1}, []float64{3}, tensor.Shape{1, 1})
	mean := makeTensor(t, []float64{0}, tensor.Shape{1})
	variance := makeTensor(t, []float64{3}, tensor.Shape{1})
	scale := makeTensor(t, []float64{2}, tensor.Shape{1})
	bias := makeTensor(t, []float64{0}, tensor.Shape{1})

	out, err := iv.PropagateBatchNorm(mean, variance, scale, bias, 1.0)
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.InDelta(t, 1.0, result.Lower().Data()[0], 1e-12)
	assert.InDelta(t, 3.0, result.Upper().Data()[0], 1e-12)
}

func TestBatchNorm_NegativeScaleKeepsOrdering(t *testing.T) {
	// A negative scale flips the affine map; bounds must stay ordered.
	iv := makeInterval(t, []float64{1}, []float64{3}, tensor.Shape{1, 1})
	mean := makeTensor(t, []float64{0}, tensor.Shape{1})
	variance := makeTensor(t, []float64{3}, tensor.Shape{1})
	scale := makeTensor(t, []float64{-2}, tensor.Shape{1})

	out, err := iv.PropagateBatchNorm(mean, variance, scale, nil, 1.0)
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.InDelta(t, -3.0, result.Lower().Data()[0], 1e-12)
	assert.InDelta(t, -1.0, result.Upper().Data()[0], 1e-12)
}

func TestBatchNorm_NoScaleNoBias(t *testing.T) {
	// multiplier = 1/sqrt(1+0) = 1, shift = -mean.
	iv := makeInterval(t, []float64{2}, []float64{4}, tensor.Shape{1, 1})
	mean := makeTensor(t, []float64{2}, tensor.Shape{1})
	variance := makeTensor(t, []float64{1}, tensor.Shape{1})

	out, err := iv.PropagateBatchNorm(mean, variance, nil, nil, 1e-12)
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.InDelta(t, 0.0, result.Lower().Data()[0], 1e-9)
	assert.InDelta(t, 2.0, result.Upper().Data()[0], 1e-9)
}

func TestMonotonic_Singleton(t *testing.T) {
	iv := makeInterval(t, []float64{-2, -1}, []float64{1, 3}, tensor.Shape{2})

	out, err := iv.PropagateMonotonic(layers.ReLU[float64, cpuB]())
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.Equal(t, []float64{0, 0}, result.Lower().Data())
	assert.Equal(t, []float64{1, 3}, result.Upper().Data())
}

func TestMonotonic_MultiSource(t *testing.T) {
	a := makeInterval(t, []float64{1}, []float64{2}, tensor.Shape{1})
	b := makeInterval(t, []float64{3}, []float64{4}, tensor.Shape{1})

	combined, err := a.CombineWith(b)
	require.NoError(t, err)

	out, err := combined.PropagateMonotonic(layers.AddAll[float64, cpuB]())
	require.NoError(t, err)

	// Lower bounds are passed positionally to the combining function,
	// likewise upper bounds: [1+3, 2+4].
	result := requireInterval(t, out)
	assert.False(t, result.IsMultiSource())
	assert.Equal(t, []float64{4}, result.Lower().Data())
	assert.Equal(t, []float64{6}, result.Upper().Data())
}

func TestCombineWith_Ordering(t *testing.T) {
	a := makeInterval(t, []float64{1}, []float64{2}, tensor.Shape{1})
	b := makeInterval(t, []float64{3}, []float64{4}, tensor.Shape{1})
	c := makeInterval(t, []float64{5}, []float64{6}, tensor.Shape{1})

	ab, err := a.CombineWith(b)
	require.NoError(t, err)
	abIv := requireInterval(t, ab)
	require.True(t, abIv.IsMultiSource())
	assert.Equal(t, []float64{1}, abIv.LowerSources()[0].Data())
	assert.Equal(t, []float64{3}, abIv.LowerSources()[1].Data())
	assert.Equal(t, []float64{2}, abIv.UpperSources()[0].Data())
	assert.Equal(t, []float64{4}, abIv.UpperSources()[1].Data())

	abc, err := abIv.CombineWith(c)
	require.NoError(t, err)
	abcIv := requireInterval(t, abc)
	require.Len(t, abcIv.LowerSources(), 3)
	assert.Equal(t, []float64{5}, abcIv.LowerSources()[2].Data())
	assert.Equal(t, []float64{6}, abcIv.UpperSources()[2].Data())

	// Combining never mutates the operands.
	assert.False(t, a.IsMultiSource())
	require.Len(t, abIv.LowerSources(), 2)
}

func TestCombineWith_MultiSourceOperand(t *testing.T) {
	a := makeInterval(t, []float64{1}, []float64{2}, tensor.Shape{1})
	b := makeInterval(t, []float64{3}, []float64{4}, tensor.Shape{1})
	c := makeInterval(t, []float64{5}, []float64{6}, tensor.Shape{1})

	multi, err := a.CombineWith(b)
	require.NoError(t, err)

	_, err = c.CombineWith(multi)
	require.ErrorIs(t, err, ErrMultiSource)
}

func TestSingletonGuard(t *testing.T) {
	a := makeInterval(t, []float64{1}, []float64{2}, tensor.Shape{1, 1})
	b := makeInterval(t, []float64{3}, []float64{4}, tensor.Shape{1, 1})

	combined, err := a.CombineWith(b)
	require.NoError(t, err)
	multi := requireInterval(t, combined)

	w := makeTensor(t, []float64{1}, tensor.Shape{1, 1})
	mean := makeTensor(t, []float64{0}, tensor.Shape{1})
	variance := makeTensor(t, []float64{1}, tensor.Shape{1})

	_, err = multi.PropagateLinear(w, nil)
	assert.ErrorIs(t, err, ErrMultiSource)

	kernel := makeTensor(t, []float64{1}, tensor.Shape{1, 1, 1, 1})
	_, err = multi.PropagateConv2D(kernel, nil, layers.Valid, [2]int{1, 1})
	assert.ErrorIs(t, err, ErrMultiSource)

	_, err = multi.PropagateBatchNorm(mean, variance, nil, nil, 1e-5)
	assert.ErrorIs(t, err, ErrMultiSource)

	_, err = multi.PropagateBatchFlatten()
	assert.ErrorIs(t, err, ErrMultiSource)

	assert.Panics(t, func() { multi.Lower() })
	assert.Panics(t, func() { multi.Upper() })
}

func TestBatchFlatten(t *testing.T) {
	iv := makeInterval(t,
		[]float64{1, 2, 3, 4},
		[]float64{5, 6, 7, 8},
		tensor.Shape{1, 2, 2})

	out, err := iv.PropagateBatchFlatten()
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.True(t, result.Lower().Shape().Equal(tensor.Shape{1, 4}))
	assert.Equal(t, []float64{1, 2, 3, 4}, result.Lower().Data())
	assert.Equal(t, []float64{5, 6, 7, 8}, result.Upper().Data())
}

func TestBatchFlatten_IdempotentOn2D(t *testing.T) {
	iv := makeInterval(t, []float64{1, 2}, []float64{3, 4}, tensor.Shape{1, 2})

	out, err := iv.PropagateBatchFlatten()
	require.NoError(t, err)

	result := requireInterval(t, out)
	assert.True(t, result.Lower().Shape().Equal(tensor.Shape{1, 2}))
	assert.Equal(t, iv.Lower().Data(), result.Lower().Data())
	assert.Equal(t, iv.Upper().Data(), result.Upper().Data())
}
