package layers

import "github.com/veribound/veribound/internal/tensor"

// Capability interfaces for backends that provide the common monotonic
// activations. They are deliberately not part of the core tensor.Backend
// contract: a backend advertises each activation by implementing the
// matching interface.

// ReLUBackend is implemented by backends that support ReLU.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends that support Sigmoid.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that support Tanh.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU returns a monotonic function applying max(0, x) element-wise.
// Panics at call time if the backend does not implement ReLUBackend.
func ReLU[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return unary[T, B]("ReLU", func(b B, x *tensor.RawTensor) (*tensor.RawTensor, bool) {
		rb, ok := any(b).(ReLUBackend)
		if !ok {
			return nil, false
		}
		return rb.ReLU(x), true
	})
}

// Sigmoid returns a monotonic function applying the logistic function
// element-wise. Panics at call time if the backend does not implement
// SigmoidBackend.
func Sigmoid[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return unary[T, B]("Sigmoid", func(b B, x *tensor.RawTensor) (*tensor.RawTensor, bool) {
		sb, ok := any(b).(SigmoidBackend)
		if !ok {
			return nil, false
		}
		return sb.Sigmoid(x), true
	})
}

// Tanh returns a monotonic function applying tanh element-wise.
// Panics at call time if the backend does not implement TanhBackend.
func Tanh[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return unary[T, B]("Tanh", func(b B, x *tensor.RawTensor) (*tensor.RawTensor, bool) {
		tb, ok := any(b).(TanhBackend)
		if !ok {
			return nil, false
		}
		return tb.Tanh(x), true
	})
}

// AddAll returns a monotonic combining function summing its arguments
// element-wise. Useful for merging multiple input sources.
func AddAll[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return func(args ...*tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
		if len(args) == 0 {
			panic("layers: AddAll requires at least one argument")
		}
		out := args[0]
		for _, arg := range args[1:] {
			out = out.Add(arg)
		}
		return out
	}
}

func unary[T tensor.Float, B tensor.Backend](name string, apply func(b B, x *tensor.RawTensor) (*tensor.RawTensor, bool)) Func[T, B] {
	return func(args ...*tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
		if len(args) != 1 {
			panic(name + ": expected exactly one argument")
		}
		x := args[0]
		raw, ok := apply(x.Backend(), x.Raw())
		if !ok {
			panic(name + ": backend does not implement this activation")
		}
		return tensor.New[T, B](raw, x.Backend())
	}
}
