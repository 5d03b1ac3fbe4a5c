// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	vk "github.com/goki/vulkan"
)

// SamplerModes are the Vulkan address modes a Sampler may use at each
// image edge.
type SamplerModes int32

const (
	Repeat SamplerModes = iota
	MirroredRepeat
	ClampToEdge
	ClampToBorder
	MirrorClampToEdge
)

func (sm SamplerModes) vkMode() vk.SamplerAddressMode {
	switch sm {
	case MirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case ClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case ClampToBorder:
		return vk.SamplerAddressModeClampToBorder
	case MirrorClampToEdge:
		return vk.SamplerAddressModeMirrorClampToEdge
	default:
		return vk.SamplerAddressModeRepeat
	}
}

// BorderColors are the Vulkan border colors available to a Sampler using
// ClampToBorder.
type BorderColors int32

const (
	BorderTrans BorderColors = iota
	BorderBlack
	BorderWhite
)

func (bc BorderColors) vkColor() vk.BorderColor {
	switch bc {
	case BorderBlack:
		return vk.BorderColorIntOpaqueBlack
	case BorderWhite:
		return vk.BorderColorIntOpaqueWhite
	default:
		return vk.BorderColorIntTransparentBlack
	}
}

// Sampler wraps a vk.Sampler, shared by every managed-image and
// texture-array connector that samples rather than storage-writes its
// resource.
type Sampler struct {
	UMode, VMode, WMode SamplerModes
	Border              BorderColors
	VkSampler           vk.Sampler
}

// NewSampler configures and creates a linear-filtered, anisotropic
// sampler on dev, repeating by default at every edge.
func NewSampler(gp *GPU, dev vk.Device) (*Sampler, error) {
	sm := &Sampler{UMode: Repeat, VMode: Repeat, WMode: Repeat, Border: BorderTrans}
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gp.GPU, &props)
	props.Deref()
	props.Limits.Deref()

	var samp vk.Sampler
	ret := vk.CreateSampler(dev, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            sm.UMode.vkMode(),
		AddressModeV:            sm.VMode.vkMode(),
		AddressModeW:            sm.WMode.vkMode(),
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           props.Limits.MaxSamplerAnisotropy,
		BorderColor:             sm.Border.vkColor(),
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}, nil, &samp)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	sm.VkSampler = samp
	return sm, nil
}

func (sm *Sampler) Destroy(dev vk.Device) {
	if sm.VkSampler != vk.NullSampler {
		vk.DestroySampler(dev, sm.VkSampler, nil)
		sm.VkSampler = vk.NullSampler
	}
}
