// Copyright 2026 The VeriBound Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package bounds exposes certified bound propagation through network
// layers.
//
// Example:
//
//	backend := cpu.New()
//	lower, _ := tensor.FromSlice([]float64{...}, shape, backend)
//	upper, _ := tensor.FromSlice([]float64{...}, shape, backend)
//	in, _ := bounds.NewInterval(lower, upper)
//	out, err := bounds.PropagateSequence[float64](in, wrappers)
package bounds

import (
	"github.com/veribound/veribound/internal/bounds"
	"github.com/veribound/veribound/internal/layers"
	"github.com/veribound/veribound/internal/tensor"
)

// Bounds is the contract every concrete bounds representation implements.
type Bounds[T tensor.Float, B tensor.Backend] = bounds.Bounds[T, B]

// Interval is the axis-aligned box representation of bounds.
type Interval[T tensor.Float, B tensor.Backend] = bounds.Interval[T, B]

// Protocol errors.
var (
	ErrUnsupportedLayerKind   = bounds.ErrUnsupportedLayerKind
	ErrNotImplemented         = bounds.ErrNotImplemented
	ErrMultiSource            = bounds.ErrMultiSource
	ErrRepresentationMismatch = bounds.ErrRepresentationMismatch
)

// NewInterval creates singleton interval bounds from lower and upper
// tensors of equal shape with lower <= upper element-wise.
func NewInterval[T tensor.Float, B tensor.Backend](lower, upper *tensor.Tensor[T, B]) (*Interval[T, B], error) {
	return bounds.NewInterval(lower, upper)
}

// NotImplemented builds the error a representation returns for a layer
// kind it does not support.
func NotImplemented(representation string, kind layers.Kind) error {
	return bounds.NotImplemented(representation, kind)
}

// Propagate dispatches bounds through one layer wrapper.
func Propagate[T tensor.Float, B tensor.Backend](b Bounds[T, B], w *layers.Wrapper[T, B]) (Bounds[T, B], error) {
	return bounds.Propagate(b, w)
}

// PropagateSequence folds bounds through an ordered wrapper sequence.
func PropagateSequence[T tensor.Float, B tensor.Backend](b Bounds[T, B], ws []*layers.Wrapper[T, B]) (Bounds[T, B], error) {
	return bounds.PropagateSequence(b, ws)
}
