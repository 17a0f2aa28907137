package usbdevice

// Device identity (§6).
const (
	VendorID  uint16 = 0x057e
	ProductID uint16 = 0x3000
	DeviceBCD uint16 = 0x0100
)

// USB vendor-specific class/subclass/protocol used by the interface.
const ClassVendorSpec = 0xFF

// Endpoint packet sizes per speed (§4.3.2).
const (
	PacketSizeFull  = 0x40
	PacketSizeHigh  = 0x200
	PacketSizeSuper = 0x400
)

// SuperSpeed endpoint companion burst size.
const SuperSpeedMaxBurst = 0x0F

// LanguageEnglish is the English language ID (0x0409) for a string
// descriptor table. advertise emits no separate string descriptor table
// on either firmware path and does not use this constant; the strings
// travel inside DeviceDescriptor and LegacyDeviceInfo.
const LanguageEnglish = 0x0409

// DeviceDescriptor mirrors usb_device_descriptor for one USB speed.
type DeviceDescriptor struct {
	BcdUSB          uint16
	BMaxPacketSize0 uint8
	IDVendor        uint16
	IDProduct       uint16
	BcdDevice       uint16
	Manufacturer    string
	Product         string
	SerialNumber    string
}

// LegacyDeviceInfo mirrors UsbDsDeviceInfo (firmware < 5.0 path).
type LegacyDeviceInfo struct {
	IDVendor     uint16
	IDProduct    uint16
	BcdDevice    uint16
	Manufacturer string
	Product      string
	SerialNumber string
}

// InterfaceDescriptor mirrors usb_interface_descriptor.
type InterfaceDescriptor struct {
	BInterfaceNumber int
	BNumEndpoints    int
	BInterfaceClass  uint8
	BInterfaceSubClass uint8
	BInterfaceProtocol uint8
}

// EndpointDescriptor mirrors endpoint_descriptor (+ companion for SS).
type EndpointDescriptor struct {
	Direction      TransferDirection
	WMaxPacketSize uint16
	// BMaxBurst is only meaningful when the endpoint is registered at
	// SuperSpeed; zero elsewhere.
	BMaxBurst uint8
}

func bcdForSpeed(speed USBSpeed) uint16 {
	switch speed {
	case SpeedFull:
		return 0x0110
	case SpeedHigh:
		return 0x0200
	default:
		return 0x0300
	}
}

func maxPacketSize0(speed USBSpeed) uint8 {
	if speed == SpeedSuper {
		return 0x09
	}
	return 0x40
}

func endpointPacketSize(speed USBSpeed) uint16 {
	switch speed {
	case SpeedFull:
		return PacketSizeFull
	case SpeedHigh:
		return PacketSizeHigh
	default:
		return PacketSizeSuper
	}
}

// buildModernDeviceDescriptor builds the explicit device descriptor for one
// speed on the firmware >= 5.0 advertisement path (§4.3.2).
func buildModernDeviceDescriptor(speed USBSpeed, manufacturer, product, serial string) DeviceDescriptor {
	return DeviceDescriptor{
		BcdUSB:          bcdForSpeed(speed),
		BMaxPacketSize0: maxPacketSize0(speed),
		IDVendor:        VendorID,
		IDProduct:       ProductID,
		BcdDevice:       DeviceBCD,
		Manufacturer:    manufacturer,
		Product:         product,
		SerialNumber:    serial,
	}
}

// buildBOS builds the raw 0x16-byte Binary Object Store descriptor: a USB
// 1.1 header, a USB 2.0 LPM capability, and a USB 3.0 SuperSpeed capability.
func buildBOS() []byte {
	return []byte{
		// BOS header: length 5, type 0x0F, total length 0x16, 2 caps.
		0x05, 0x0F, 0x16, 0x00, 0x02,
		// USB 2.0 extension capability, LPM supported.
		0x07, 0x10, 0x02, 0x02, 0x00, 0x00, 0x00,
		// USB 3.0 SuperSpeed capability.
		0x0A, 0x10, 0x03, 0x00, 0x0E, 0x00, 0x03, 0x00, 0x00, 0x00,
	}
}

func buildLegacyDeviceInfo(manufacturer, product, serial string) LegacyDeviceInfo {
	return LegacyDeviceInfo{
		IDVendor:     VendorID,
		IDProduct:    ProductID,
		BcdDevice:    DeviceBCD,
		Manufacturer: manufacturer,
		Product:      product,
		SerialNumber: serial,
	}
}
