// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rgvk is the goki/vulkan-backed implementation of the
// render-graph core's external-collaborator interfaces (graph.Allocator,
// graph.Fence, graph.CommandPool, graph.CommandBuffer, graph.Queue),
// narrowed to what the render-graph driver actually calls through.
package rgvk

import (
	vk "github.com/goki/vulkan"
)

// GPU represents the GPU hardware and the Vulkan instance it was opened
// through; one per physical device in use.
type GPU struct {
	Name    string
	GPU     vk.PhysicalDevice
	Instance vk.Instance

	MaxTextures int

	DeviceExts       []string
	ValidationLayers []string
	EnabledOpts      []string

	DeviceFeaturesNeeded *vk.PhysicalDeviceFeatures2
}

// NewGPU wraps an already-created vk.Instance and selects physical
// device index 0. Instance creation (extensions, validation layers,
// window-system integration) is itself a windowing/OS concern outside
// this package's scope; callers construct the vk.Instance and hand it
// in.
func NewGPU(instance vk.Instance) (*GPU, error) {
	var deviceCount uint32
	vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)
	if deviceCount == 0 {
		return nil, NewError(vk.ErrorInitializationFailed)
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(devices[0], &props)
	props.Deref()

	gp := &GPU{
		Instance: instance,
		GPU:      devices[0],
		Name:     vk.ToString(props.DeviceName[:]),
	}
	return gp, nil
}

// SetGPUOpts enables the device features named in opts (matched against
// the feats struct's field names is out of scope here — opts is recorded
// for the caller's own feature-selection logic; this core only needs
// SamplerAnisotropy and the array-dynamic-indexing features Device.Init
// always requests).
func (gp *GPU) SetGPUOpts(feats *vk.PhysicalDeviceFeatures, opts []string) {
	gp.EnabledOpts = opts
}
