// Package hostusb opens the Nintendo Switch-side USB gadget from the host
// PC using gousb and exposes it as a hostproto.Transport, following gousb's
// OpenDeviceWithVIDPID / Config / Interface / endpoint acquisition pattern.
package hostusb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// Default endpoint addresses: one bulk OUT for the status replies the host
// sends, one bulk IN for the commands and file data the device sends.
const (
	defaultEndpointOut = 0x01
	defaultEndpointIn  = 0x81

	readTimeout = 5 * time.Second
)

// Device is a gousb-backed hostproto.Transport.
type Device struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint
}

// Open claims the device matching vid/pid and its first interface.
func Open(vid, pid uint16) (*Device, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("hostusb: open device: %w", err)
	}
	if device == nil {
		ctx.Close()
		return nil, fmt.Errorf("hostusb: device not found (VID:0x%04x PID:0x%04x)", vid, pid)
	}

	config, err := device.Config(1)
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("hostusb: set config: %w", err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("hostusb: claim interface: %w", err)
	}

	epOut, err := intf.OutEndpoint(defaultEndpointOut)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("hostusb: open OUT endpoint: %w", err)
	}

	epIn, err := intf.InEndpoint(defaultEndpointIn)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("hostusb: open IN endpoint: %w", err)
	}

	return &Device{ctx: ctx, device: device, config: config, intf: intf, epOut: epOut, epIn: epIn}, nil
}

// ReadBulk satisfies hostproto.Transport.
func (d *Device) ReadBulk(buf []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	n, err := d.epIn.ReadContext(ctx, buf)
	if err != nil {
		return n, fmt.Errorf("hostusb: read: %w", err)
	}
	return n, nil
}

// WriteBulk satisfies hostproto.Transport.
func (d *Device) WriteBulk(buf []byte) (int, error) {
	n, err := d.epOut.Write(buf)
	if err != nil {
		return n, fmt.Errorf("hostusb: write: %w", err)
	}
	return n, nil
}

// Close releases the interface, configuration, device handle and context,
// in that order.
func (d *Device) Close() error {
	if d.intf != nil {
		d.intf.Close()
	}
	if d.config != nil {
		d.config.Close()
	}
	if d.device != nil {
		d.device.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
	return nil
}
