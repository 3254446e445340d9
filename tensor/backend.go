// Copyright 2026 The VeriBound Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/veribound/veribound/internal/tensor"
)

// Backend is the interface compute backends implement. Every operation
// must be deterministic for fixed inputs and must never mutate its
// arguments.
type Backend = tensor.Backend
