// Package hostproto implements the host side of the device-side USB
// transfer protocol (internal/usbframe, internal/usbdevice): parsing
// command frames sent by the device, writing status replies, and
// streaming the file payloads that follow SendFileProperties. It knows
// nothing about USB itself; internal/hostusb supplies the Transport.
package hostproto

// Transport is the bulk-endpoint pair a Receiver reads commands from and
// writes status frames to. internal/hostusb implements this over gousb;
// tests use an in-memory fake.
type Transport interface {
	ReadBulk(buf []byte) (int, error)
	WriteBulk(buf []byte) (int, error)
}
