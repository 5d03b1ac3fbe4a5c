// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// NewError returns an error for a non-success vk.Result, or nil if result
// is vk.Success.
func NewError(result vk.Result) error {
	if result == vk.Success {
		return nil
	}
	return fmt.Errorf("vulkan error: %d", result)
}

// IfPanic panics if err is non-nil. Used at call sites where the
// surrounding vgpu convention treats a Vulkan API failure as
// unrecoverable (device loss, out-of-memory) rather than propagated as a
// normal error; the render-graph layer above only ever sees this panic
// where it has a recover() boundary (node hooks), never inside rgvk
// itself during steady-state iteration.
func IfPanic(err error) {
	if err != nil {
		panic(err)
	}
}
