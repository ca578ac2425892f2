//go:build !nogpu

package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/wgpu/hal"
)

// errNoAdapter is returned when the backend exposes no adapter.
var errNoAdapter = errors.New("no GPU adapters found")

// gpuDevice is an open HAL device with the adapter facts a pipeline needs.
type gpuDevice struct {
	instance hal.Instance
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo

	// pitchAlignment is the row alignment of buffer-texture copies.
	pitchAlignment uint32
}

// openDevice creates an instance of v's backend and opens the preferred
// adapter. When surface creation is needed it happens before adapter
// selection so the adapter can be checked for presentation support.
func openDevice(v variant, target pixbuf.SurfaceTarget, debug bool) (*gpuDevice, hal.Surface, error) {
	backend, ok := hal.GetBackend(v.backend)
	if !ok {
		return nil, nil, fmt.Errorf("%s backend not available", v.api)
	}
	var flags gputypes.InstanceFlags
	if debug {
		flags = gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.Backends(1) << v.backend,
		Flags:    flags,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}
	d := &gpuDevice{instance: instance}

	var surface hal.Surface
	if target.Window != 0 {
		surface, err = instance.CreateSurface(target.Display, target.Window)
		if err != nil {
			instance.Destroy()
			return nil, nil, fmt.Errorf("create surface: %w", err)
		}
	}

	adapters := instance.EnumerateAdapters(surface)
	if len(adapters) == 0 {
		d.destroy(surface)
		return nil, nil, errNoAdapter
	}
	selected := selectAdapter(adapters)

	features := gputypes.Features(0)
	if selected.Features.Contains(gputypes.FeatureTextureAdapterSpecificFormatFeatures) {
		features = gputypes.Features(gputypes.FeatureTextureAdapterSpecificFormatFeatures)
	}
	open, err := selected.Adapter.Open(features, gputypes.DefaultLimits())
	if err != nil {
		d.destroy(surface)
		return nil, nil, fmt.Errorf("open device: %w", err)
	}
	d.adapter = selected.Adapter
	d.device = open.Device
	d.queue = open.Queue
	d.info = selected.Info
	d.pitchAlignment = uint32(selected.Capabilities.AlignmentsMask.BufferCopyPitch)
	if d.pitchAlignment == 0 {
		d.pitchAlignment = 1
	}
	return d, surface, nil
}

// selectAdapter prefers a discrete, then an integrated GPU.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// destroy releases the device, the surface and the instance, in that order.
func (d *gpuDevice) destroy(surface hal.Surface) {
	if d.device != nil {
		if surface != nil {
			surface.Unconfigure(d.device)
		}
		d.device.Destroy()
		d.device = nil
		d.queue = nil
	}
	if surface != nil {
		surface.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
