package cpu

import (
	"fmt"

	"github.com/veribound/veribound/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, KH, KW]
// Output shape: [N, C_out, H_out, W_out]
//
// strides is [strideH, strideW]; pads is [top, bottom, left, right] with
// zero padding, so asymmetric padding (as produced by SAME geometry with an
// odd total) is expressed directly:
//
//	out_h = (H + padTop + padBottom - KH) / strideH + 1
//	out_w = (W + padLeft + padRight - KW) / strideW + 1
//
// Algorithm: im2col transforms input patches into rows of a column matrix,
// the kernel is viewed as [C_out, C_in*KH*KW], and the convolution reduces
// to a matrix product.
//
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, strides [2]int, pads [4]int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,KH,KW], got %dD", len(kernelShape)))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("conv2d: dtype mismatch %s vs %s", input.DType(), kernel.DType()))
	}

	n := inputShape[0]
	cIn := inputShape[1]
	h := inputShape[2]
	w := inputShape[3]
	cOut := kernelShape[0]
	kh := kernelShape[2]
	kw := kernelShape[3]

	if cIn != kernelShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kernelShape[1]))
	}
	if strides[0] <= 0 || strides[1] <= 0 {
		panic(fmt.Sprintf("conv2d: invalid strides %v", strides))
	}
	for _, p := range pads {
		if p < 0 {
			panic(fmt.Sprintf("conv2d: invalid pads %v", pads))
		}
	}

	hOut := (h+pads[0]+pads[1]-kh)/strides[0] + 1
	wOut := (w+pads[2]+pads[3]-kw)/strides[1] + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check strides/pads)", hOut, wOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{n, cOut, hOut, wOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	geom := convGeom{
		n: n, cIn: cIn, h: h, w: w,
		cOut: cOut, kh: kh, kw: kw,
		hOut: hOut, wOut: wOut,
		strideH: strides[0], strideW: strides[1],
		padTop: pads[0], padLeft: pads[2],
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dApply(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), geom)
	case tensor.Float64:
		conv2dApply(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), geom)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

// convGeom collects the loop bounds for one convolution call.
type convGeom struct {
	n, cIn, h, w     int
	cOut, kh, kw     int
	hOut, wOut       int
	strideH, strideW int
	padTop, padLeft  int
}

// conv2dApply runs im2col followed by a kernel-matrix product, writing the
// output directly in [N, C_out, H_out, W_out] layout.
func conv2dApply[T float32 | float64](output, input, kernel []T, g convGeom) {
	colWidth := g.cIn * g.kh * g.kw
	colHeight := g.n * g.hOut * g.wOut
	colBuf := make([]T, colHeight*colWidth)

	im2col(colBuf, input, g)

	// kernel is already laid out as [C_out, C_in*KH*KW] in row-major order.
	// result[c, j] = sum_k kernel[c, k] * colBuf[j, k], scattered into
	// [n, c, h, w] as it is produced.
	hw := g.hOut * g.wOut
	for c := 0; c < g.cOut; c++ {
		for j := 0; j < colHeight; j++ {
			var sum T
			for k := 0; k < colWidth; k++ {
				sum += kernel[c*colWidth+k] * colBuf[j*colWidth+k]
			}
			n := j / hw
			output[n*g.cOut*hw+c*hw+j%hw] = sum
		}
	}
}

// im2col transforms the [N, C, H, W] input into a column matrix of shape
// [N*H_out*W_out, C*KH*KW]. Each row corresponds to one output position;
// out-of-bounds positions contribute zeros (zero padding).
func im2col[T float32 | float64](colBuf, input []T, g convGeom) {
	colWidth := g.cIn * g.kh * g.kw
	colIdx := 0

	for n := 0; n < g.n; n++ {
		for outH := 0; outH < g.hOut; outH++ {
			for outW := 0; outW < g.wOut; outW++ {
				hStart := outH*g.strideH - g.padTop
				wStart := outW*g.strideW - g.padLeft
				bufIdx := colIdx * colWidth

				for c := 0; c < g.cIn; c++ {
					for kh := 0; kh < g.kh; kh++ {
						for kw := 0; kw < g.kw; kw++ {
							h := hStart + kh
							w := wStart + kw

							if h >= 0 && h < g.h && w >= 0 && w < g.w {
								colBuf[bufIdx] = input[n*g.cIn*g.h*g.w+c*g.h*g.w+h*g.w+w]
							} else {
								colBuf[bufIdx] = 0
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
