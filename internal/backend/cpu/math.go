package cpu

import (
	"fmt"
	"math"

	"github.com/veribound/veribound/internal/tensor"
)

// Abs computes element-wise absolute value: |x|.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("abs", x,
		func(v float32) float32 { return float32(math.Abs(float64(v))) },
		math.Abs)
}

// Sqrt computes element-wise square root: sqrt(x).
// Panics on negative values.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sqrt", x,
		func(v float32) float32 {
			if v < 0 {
				panic(fmt.Sprintf("sqrt: negative value %f", v))
			}
			return float32(math.Sqrt(float64(v)))
		},
		func(v float64) float64 {
			if v < 0 {
				panic(fmt.Sprintf("sqrt: negative value %f", v))
			}
			return math.Sqrt(v)
		})
}

// Rsqrt computes element-wise reciprocal square root: 1/sqrt(x).
// Panics on non-positive values.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", x,
		func(v float32) float32 {
			if v <= 0 {
				panic(fmt.Sprintf("rsqrt: non-positive value %f", v))
			}
			return 1.0 / float32(math.Sqrt(float64(v)))
		},
		func(v float64) float64 {
			if v <= 0 {
				panic(fmt.Sprintf("rsqrt: non-positive value %f", v))
			}
			return 1.0 / math.Sqrt(v)
		})
}

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", x,
		func(v float32) float32 { return float32(math.Exp(float64(v))) },
		math.Exp)
}

func (cpu *CPUBackend) unaryOp(name string, x *tensor.RawTensor,
	f32 func(v float32) float32, f64 func(v float64) float64,
) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = f32(v)
		}
	case tensor.Float64:
		src := x.AsFloat64()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = f64(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}
