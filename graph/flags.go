// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

// AccessFlags is a bitmask of memory-access types a connector requires or
// produces, mirroring vk.AccessFlags2 without binding this package to the
// Vulkan bindings (see rgvk for the concrete mapping).
type AccessFlags uint64

// PipelineStageFlags is a bitmask of pipeline stages, mirroring
// vk.PipelineStageFlags2.
type PipelineStageFlags uint64

// UsageFlags is a bitmask of image or buffer usage, mirroring
// vk.ImageUsageFlags / vk.BufferUsageFlags depending on resource kind.
type UsageFlags uint64

// ShaderStageFlags is a bitmask of shader stages a descriptor binding is
// visible to.
type ShaderStageFlags uint64

// ImageLayout is an abstract image layout, mirroring vk.ImageLayout. The
// zero value is LayoutUndefined.
type ImageLayout int

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutShaderReadOnly
	LayoutTransferSrc
	LayoutTransferDst
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutPresentSrc
)

func (l ImageLayout) String() string {
	switch l {
	case LayoutUndefined:
		return "undefined"
	case LayoutGeneral:
		return "general"
	case LayoutShaderReadOnly:
		return "shader-read-only"
	case LayoutTransferSrc:
		return "transfer-src"
	case LayoutTransferDst:
		return "transfer-dst"
	case LayoutColorAttachment:
		return "color-attachment"
	case LayoutDepthStencilAttachment:
		return "depth-stencil-attachment"
	case LayoutPresentSrc:
		return "present-src"
	default:
		return "unknown-layout"
	}
}

// Or unions two flag sets. Defined as a free function (rather than a
// method with a pointer receiver) so it reads the same for all three
// flag types at call sites in connectors.
func orAccess(a, b AccessFlags) AccessFlags             { return a | b }
func orStage(a, b PipelineStageFlags) PipelineStageFlags { return a | b }
func orUsage(a, b UsageFlags) UsageFlags                 { return a | b }
