// Copyright 2026 The VeriBound Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layers exposes read-only layer wrapper descriptors consumed by
// bound propagation.
package layers

import (
	"github.com/veribound/veribound/internal/layers"
	"github.com/veribound/veribound/internal/tensor"
)

// Kind identifies one of the supported layer kinds.
type Kind = layers.Kind

// Supported layer kinds.
const (
	LinearFC     Kind = layers.LinearFC
	LinearConv2D Kind = layers.LinearConv2D
	Monotonic    Kind = layers.Monotonic
	BatchNorm    Kind = layers.BatchNorm
	BatchFlatten Kind = layers.BatchFlatten
)

// Padding selects how a convolution pads its input.
type Padding = layers.Padding

// Supported padding modes.
const (
	Valid Padding = layers.Valid
	Same  Padding = layers.Same
)

// Func is a monotonic tensor function: non-decreasing in every argument
// (unchecked caller contract).
type Func[T tensor.Float, B tensor.Backend] = layers.Func[T, B]

// Wrapper describes one network layer as pure data.
type Wrapper[T tensor.Float, B tensor.Backend] = layers.Wrapper[T, B]

// NewLinearFC describes a fully connected layer y = x @ w (+ b).
// Weight shape is [in_features, out_features]; bias may be nil.
func NewLinearFC[T tensor.Float, B tensor.Backend](w, b *tensor.Tensor[T, B]) *Wrapper[T, B] {
	return layers.NewLinearFC(w, b)
}

// NewLinearConv2D describes a 2D convolution with kernel
// [out_channels, in_channels, kernel_h, kernel_w], optional bias, padding
// mode and per-spatial-dimension stride.
func NewLinearConv2D[T tensor.Float, B tensor.Backend](w, b *tensor.Tensor[T, B], padding Padding, stride [2]int) *Wrapper[T, B] {
	return layers.NewLinearConv2D(w, b, padding, stride)
}

// NewMonotonic describes an element-wise (or multi-argument) monotonic
// function layer.
func NewMonotonic[T tensor.Float, B tensor.Backend](fn Func[T, B]) *Wrapper[T, B] {
	return layers.NewMonotonic(fn)
}

// NewBatchNorm describes a batch-normalization layer by its running
// statistics, optional scale/bias and epsilon.
func NewBatchNorm[T tensor.Float, B tensor.Backend](mean, variance, scale, bias *tensor.Tensor[T, B], epsilon float64) *Wrapper[T, B] {
	return layers.NewBatchNorm(mean, variance, scale, bias, epsilon)
}

// NewBatchFlatten describes a reshape to [batch, flattened_features].
func NewBatchFlatten[T tensor.Float, B tensor.Backend]() *Wrapper[T, B] {
	return layers.NewBatchFlatten[T, B]()
}

// Monotonic activation helpers.

// ReLU returns a monotonic function applying max(0, x) element-wise.
func ReLU[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return layers.ReLU[T, B]()
}

// Sigmoid returns a monotonic function applying the logistic function
// element-wise.
func Sigmoid[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return layers.Sigmoid[T, B]()
}

// Tanh returns a monotonic function applying tanh element-wise.
func Tanh[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return layers.Tanh[T, B]()
}

// AddAll returns a monotonic combining function summing its arguments
// element-wise.
func AddAll[T tensor.Float, B tensor.Backend]() Func[T, B] {
	return layers.AddAll[T, B]()
}
