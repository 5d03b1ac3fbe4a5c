// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"github.com/chewxy/math32"
	vk "github.com/goki/vulkan"

	"github.com/cogentcore/rendergraph/graph"
)

// Image wraps a vk.Image plus its backing device memory and a default
// view; the Backing handle every image-kind Resource carries (see the
// connectors package).
type Image struct {
	dev    vk.Device
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Extent vk.Extent3D
}

func pixelFormat(f graph.ImageFormat) vk.Format {
	switch f.PixelFormat {
	case "R8G8B8A8_UNORM":
		return vk.FormatR8g8b8a8Unorm
	case "R32G32B32A32_SFLOAT":
		return vk.FormatR32g32b32a32Sfloat
	case "D32_SFLOAT":
		return vk.FormatD32Sfloat
	default:
		return vk.FormatR8g8b8a8Unorm
	}
}

func usageFlags(u graph.UsageFlags) vk.ImageUsageFlagBits {
	var f vk.ImageUsageFlagBits
	if u&1 != 0 {
		f |= vk.ImageUsageColorAttachmentBit
	}
	if u&2 != 0 {
		f |= vk.ImageUsageSampledBit
	}
	if u&4 != 0 {
		f |= vk.ImageUsageStorageBit
	}
	if u&8 != 0 {
		f |= vk.ImageUsageTransferSrcBit
	}
	if u&16 != 0 {
		f |= vk.ImageUsageTransferDstBit
	}
	if f == 0 {
		f = vk.ImageUsageSampledBit
	}
	return f
}

// NewImage creates a 2D (or 2D-array, when layers > 1) device-local image
// matching req, with its own dedicated memory allocation. This reference
// allocator does not sub-allocate or alias multiple images within one
// vk.DeviceMemory block — true memory aliasing is a more invasive
// suballocator left to a production Vulkan backend; Allocator.AllocateAliased
// still honors the Allocator contract (it creates exactly Copies
// independent images), it just never reuses memory across outputs.
func NewImage(gp *GPU, dev vk.Device, req graph.AllocRequest, layers int) (*Image, error) {
	extent := vk.Extent3D{Width: req.Format.Width, Height: req.Format.Height, Depth: 1}
	if req.Format.Width == 0 {
		extent.Width, extent.Height = 1, 1
	}
	format := pixelFormat(req.Format)

	var img vk.Image
	ret := vk.CreateImage(dev, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent:    extent,
		MipLevels: mipLevelCount(req.Format),
		ArrayLayers: maxu32(uint32(layers), 1),
		Samples:   sampleCount(req.Format.Samples),
		Tiling:    vk.ImageTilingOptimal,
		Usage:     vk.ImageUsageFlags(usageFlags(req.Usage)),
		SharingMode: vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img)
	if err := NewError(ret); err != nil {
		return nil, err
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, img, &memReqs)
	memReqs.Deref()

	memType, err := findMemoryType(gp, memReqs.MemoryTypeBits, vk.MemoryPropertyFlagBits(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(dev, img, nil)
		return nil, err
	}

	var mem vk.DeviceMemory
	ret = vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &mem)
	if err := NewError(ret); err != nil {
		vk.DestroyImage(dev, img, nil)
		return nil, err
	}
	vk.BindImageMemory(dev, img, mem, 0)

	return &Image{dev: dev, Image: img, Memory: mem, Format: format, Extent: extent}, nil
}

func (im *Image) Destroy() {
	if im.View != vk.NullImageView {
		vk.DestroyImageView(im.dev, im.View, nil)
		im.View = vk.NullImageView
	}
	if im.Image != vk.NullHandle {
		vk.DestroyImage(im.dev, im.Image, nil)
	}
	if im.Memory != vk.NullHandle {
		vk.FreeMemory(im.dev, im.Memory, nil)
	}
}

// mipLevelCount returns f.MipLevels unchanged when the output connector
// named an explicit count. A count of 0 means "full chain", which this
// allocator derives the way the GPU-side math wants it: floor(log2(max
// dimension)) + 1, computed in float32 since that's the precision the
// formula is defined over and a float64 round-trip buys nothing here.
func mipLevelCount(f graph.ImageFormat) uint32 {
	if f.MipLevels != 0 {
		return f.MipLevels
	}
	maxDim := float32(maxu32(f.Width, f.Height))
	if maxDim <= 1 {
		return 1
	}
	return uint32(math32.Floor(math32.Log2(maxDim))) + 1
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func sampleCount(n uint32) vk.SampleCountFlagBits {
	switch n {
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	default:
		return vk.SampleCount1Bit
	}
}

func findMemoryType(gp *GPU, typeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(gp.GPU, &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		if typeBits&(1<<i) != 0 && memProps.MemoryTypes[i].PropertyFlags&vk.MemoryPropertyFlags(properties) == vk.MemoryPropertyFlags(properties) {
			return i, nil
		}
	}
	return 0, NewError(vk.ErrorOutOfDeviceMemory)
}
