// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rgvk

import (
	"errors"

	vk "github.com/goki/vulkan"
)

// Device holds a logical device and the queue the render-graph driver
// submits command buffers to.
type Device struct {
	Device     vk.Device
	QueueIndex uint32
	Queue      vk.Queue
}

// Init finds a queue matching flags and creates the logical device.
func (dv *Device) Init(gp *GPU, flags vk.QueueFlagBits) error {
	if err := dv.findQueue(gp, flags); err != nil {
		return err
	}
	dv.makeDevice(gp)
	return nil
}

func (dv *Device) findQueue(gp *GPU, flags vk.QueueFlagBits) error {
	var queueCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gp.GPU, &queueCount, nil)
	queueProperties := make([]vk.QueueFamilyProperties, queueCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(gp.GPU, &queueCount, queueProperties)
	if queueCount == 0 {
		return errors.New("rgvk: no queue families found")
	}

	required := vk.QueueFlags(flags)
	for i := uint32(0); i < queueCount; i++ {
		queueProperties[i].Deref()
		if queueProperties[i].QueueFlags&required != 0 {
			dv.QueueIndex = i
			return nil
		}
	}
	return errors.New("rgvk: no queue family supports the requested flags")
}

func (dv *Device) makeDevice(gp *GPU) {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: dv.QueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	feats := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy:                       vk.True,
		ShaderSampledImageArrayDynamicIndexing:  vk.True,
		ShaderUniformBufferArrayDynamicIndexing: vk.True,
		ShaderStorageBufferArrayDynamicIndexing: vk.True,
	}
	gp.SetGPUOpts(&feats, gp.EnabledOpts)

	var device vk.Device
	ret := vk.CreateDevice(gp.GPU, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(gp.DeviceExts)),
		PpEnabledExtensionNames: gp.DeviceExts,
		EnabledLayerCount:       uint32(len(gp.ValidationLayers)),
		PpEnabledLayerNames:     gp.ValidationLayers,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{feats},
	}, nil, &device)
	IfPanic(NewError(ret))

	dv.Device = device
	var queue vk.Queue
	vk.GetDeviceQueue(dv.Device, dv.QueueIndex, 0, &queue)
	dv.Queue = queue
}

// Destroy waits for the device to go idle and releases it.
func (dv *Device) Destroy() {
	if dv.Device == nil {
		return
	}
	vk.DeviceWaitIdle(dv.Device)
	vk.DestroyDevice(dv.Device, nil)
	dv.Device = nil
}

// WaitIdle blocks until every queue on this device has finished
// executing, used at driver shutdown.
func (dv *Device) WaitIdle() {
	vk.DeviceWaitIdle(dv.Device)
}

// NewGraphicsDevice opens a graphics-capable logical device on gp.
func NewGraphicsDevice(gp *GPU) (*Device, error) {
	dev := &Device{}
	if err := dev.Init(gp, vk.QueueGraphicsBit); err != nil {
		return nil, err
	}
	return dev, nil
}
