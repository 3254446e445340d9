// Copyright 2026 The VeriBound Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes the reference CPU backend.
package cpu

import (
	internalcpu "github.com/veribound/veribound/internal/backend/cpu"
	"github.com/veribound/veribound/tensor"
)

// Backend is the CPU backend implementation: pure Go tensor operations,
// with float64 matrix products delegated to gonum.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
