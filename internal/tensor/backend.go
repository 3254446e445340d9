package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Every operation is a pure function of its inputs: for fixed operands a
// backend must always return the same result, and it must never mutate its
// arguments. Bound propagation relies on both properties.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	// For 2D tensors: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D performs 2D convolution.
	// Input shape [N, C_in, H, W], kernel shape [C_out, C_in, KH, KW].
	// strides is [strideH, strideW]; pads is [top, bottom, left, right]
	// with zero padding.
	Conv2D(input, kernel *RawTensor, strides [2]int, pads [4]int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with a scalar, converted to the
	// tensor's dtype).
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	SubScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	DivScalar(x *RawTensor, scalar float64) *RawTensor

	// Math operations (element-wise).
	Abs(x *RawTensor) *RawTensor   // absolute value
	Sqrt(x *RawTensor) *RawTensor  // square root
	Rsqrt(x *RawTensor) *RawTensor // reciprocal square root (1/sqrt(x))
	Exp(x *RawTensor) *RawTensor   // exponential

	// Metadata.
	Name() string
	Device() Device
}
