package layers

import "fmt"

// Padding selects how a convolution pads its input.
type Padding string

// Supported padding modes.
const (
	// Valid applies no padding; the kernel only visits fully-covered
	// positions.
	Valid Padding = "VALID"
	// Same pads so that the output spatial size is ceil(input/stride).
	// When the total padding along an axis is odd, the extra cell goes to
	// the bottom/right.
	Same Padding = "SAME"
)

// Resolve computes explicit [top, bottom, left, right] pads for the given
// input/kernel/stride geometry.
func (p Padding) Resolve(inH, inW, kernelH, kernelW, strideH, strideW int) ([4]int, error) {
	switch p {
	case Valid:
		return [4]int{}, nil
	case Same:
		padH := samePad(inH, kernelH, strideH)
		padW := samePad(inW, kernelW, strideW)
		return [4]int{padH / 2, padH - padH/2, padW / 2, padW - padW/2}, nil
	default:
		return [4]int{}, fmt.Errorf("unknown padding mode %q", string(p))
	}
}

// samePad returns the total padding along one axis for SAME geometry.
func samePad(in, kernel, stride int) int {
	outSize := (in + stride - 1) / stride
	pad := (outSize-1)*stride + kernel - in
	return max(pad, 0)
}
