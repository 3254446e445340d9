package cpu

import (
	"testing"

	"github.com/veribound/veribound/internal/tensor"
)

func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Input: [1, 1, 3, 3]
	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := newFloat64(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})

	// Kernel: [1, 1, 2, 2], identity-like diagonal:
	// 1 0
	// 0 1
	kernel := newFloat64(t, []float64{1, 0, 0, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, [2]int{1, 1}, [4]int{})

	// out_h = (3 - 2)/1 + 1 = 2
	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("expected shape [1 1 2 2], got %v", output.Shape())
	}

	// Diagonal sums of each 2x2 patch.
	expected := []float64{6, 8, 12, 14}
	for i, exp := range expected {
		if got := output.AsFloat64()[i]; got != exp {
			t.Errorf("Output[%d]: expected %v, got %v", i, exp, got)
		}
	}
}

func TestConv2D_WithPads(t *testing.T) {
	backend := New()

	// All-ones 3x3 input, all-ones 3x3 sum kernel, symmetric padding 1.
	input := newFloat64(t, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3})
	kernel := newFloat64(t, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3})

	output := backend.Conv2D(input, kernel, [2]int{1, 1}, [4]int{1, 1, 1, 1})

	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("expected shape [1 1 3 3], got %v", output.Shape())
	}

	// Corners see 4 valid cells, edges 6, center 9.
	expected := []float64{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}
	for i, exp := range expected {
		if got := output.AsFloat64()[i]; got != exp {
			t.Errorf("Output[%d]: expected %v, got %v", i, exp, got)
		}
	}
}

func TestConv2D_AsymmetricPads(t *testing.T) {
	backend := New()

	// 1x2 input [a b], 1x2 sum kernel, pad only on the right:
	// positions: [a+b, b+0].
	input := newFloat64(t, []float64{3, 5}, tensor.Shape{1, 1, 1, 2})
	kernel := newFloat64(t, []float64{1, 1}, tensor.Shape{1, 1, 1, 2})

	output := backend.Conv2D(input, kernel, [2]int{1, 1}, [4]int{0, 0, 0, 1})

	if !output.Shape().Equal(tensor.Shape{1, 1, 1, 2}) {
		t.Fatalf("expected shape [1 1 1 2], got %v", output.Shape())
	}

	expected := []float64{8, 5}
	for i, exp := range expected {
		if got := output.AsFloat64()[i]; got != exp {
			t.Errorf("Output[%d]: expected %v, got %v", i, exp, got)
		}
	}
}

func TestConv2D_PerAxisStride(t *testing.T) {
	backend := New()

	// Input: [1, 1, 4, 4] with values 1..16, 2x2 sum kernel,
	// strideH=2, strideW=1.
	data := make([]float64, 16)
	for i := range data {
		data[i] = float64(i + 1)
	}
	input := newFloat64(t, data, tensor.Shape{1, 1, 4, 4})
	kernel := newFloat64(t, []float64{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, [2]int{2, 1}, [4]int{})

	// out_h = (4-2)/2+1 = 2, out_w = (4-2)/1+1 = 3
	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 3}) {
		t.Fatalf("expected shape [1 1 2 3], got %v", output.Shape())
	}

	expected := []float64{
		1 + 2 + 5 + 6, 2 + 3 + 6 + 7, 3 + 4 + 7 + 8,
		9 + 10 + 13 + 14, 10 + 11 + 14 + 15, 11 + 12 + 15 + 16,
	}
	for i, exp := range expected {
		if got := output.AsFloat64()[i]; got != exp {
			t.Errorf("Output[%d]: expected %v, got %v", i, exp, got)
		}
	}
}

func TestConv2D_MultiChannel(t *testing.T) {
	backend := New()

	// Input: [1, 2, 2, 2], kernel [1, 2, 2, 2] summing all cells of both
	// channels into a single output value.
	input := newFloat64(t, []float64{1, 2, 3, 4, 10, 20, 30, 40}, tensor.Shape{1, 2, 2, 2})
	kernel := newFloat64(t, []float64{1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 2, 2, 2})

	output := backend.Conv2D(input, kernel, [2]int{1, 1}, [4]int{})

	if !output.Shape().Equal(tensor.Shape{1, 1, 1, 1}) {
		t.Fatalf("expected shape [1 1 1 1], got %v", output.Shape())
	}
	if got := output.AsFloat64()[0]; got != 110 {
		t.Errorf("expected 110, got %v", got)
	}
}

func TestConv2D_Batch(t *testing.T) {
	backend := New()

	// Two batch entries through the same 1x1 doubling kernel.
	input := newFloat64(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 1, 1, 2})
	kernel := newFloat64(t, []float64{2}, tensor.Shape{1, 1, 1, 1})

	output := backend.Conv2D(input, kernel, [2]int{1, 1}, [4]int{})

	if !output.Shape().Equal(tensor.Shape{2, 1, 1, 2}) {
		t.Fatalf("expected shape [2 1 1 2], got %v", output.Shape())
	}
	for i, exp := range []float64{2, 4, 6, 8} {
		if got := output.AsFloat64()[i]; got != exp {
			t.Errorf("Output[%d]: expected %v, got %v", i, exp, got)
		}
	}
}

func TestConv2D_Float32(t *testing.T) {
	backend := New()

	input := newFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := newFloat32(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2})

	output := backend.Conv2D(input, kernel, [2]int{1, 1}, [4]int{})

	if got := output.AsFloat32()[0]; got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
}
