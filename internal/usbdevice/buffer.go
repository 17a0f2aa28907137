package usbdevice

import "unsafe"

// TransferAlignment is the mandatory buffer alignment for posted transfers
// (§4.3.3, §6): 4 KiB.
const TransferAlignment = 0x1000

// TransferBufferSize bounds a single send_file_data chunk and sizes the
// shared transfer buffer allocated by Initialize.
const TransferBufferSize = 1 << 20 // 1 MiB

// newAlignedBuffer allocates a byte slice of size bytes whose address is a
// multiple of align, by over-allocating and slicing to the first aligned
// offset.
func newAlignedBuffer(size, align int) []byte {
	buf := make([]byte, size+align)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	pad := int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
	return buf[pad : pad+size : pad+size]
}

// isAligned reports whether buf's address is a multiple of align.
func isAligned(buf []byte, align int) bool {
	if len(buf) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(&buf[0]))%uintptr(align) == 0
}
