package usbdevice

import (
	"errors"
	"fmt"
	"log"

	"nxdt/internal/usbframe"
)

// maxCommandSize bounds a single command frame (header + block) against
// the shared transfer buffer.
const maxCommandSize = usbframe.HeaderSize + usbframe.SendFilePropertiesBlockSize

// sendCommandLocked writes a command frame and reads back the host's
// status frame. Callers must already hold G. It never itself tears down
// the session; §7's propagation policy is enforced by callers.
func (u *UsbLink) sendCommandLocked(cmd usbframe.Command, block []byte) (usbframe.Status, error) {
	total := usbframe.HeaderSize + len(block)
	if total > maxCommandSize || total > len(u.buffer) {
		return usbframe.StatusInvalidCommandSize, fmt.Errorf("usbdevice: %w", errInvalidCommandSize)
	}

	header := usbframe.PrepareCommandHeader(cmd, uint32(len(block)))
	copy(u.buffer[:usbframe.HeaderSize], header.Encode())
	copy(u.buffer[usbframe.HeaderSize:total], block)

	if _, err := u.transferInLocked(u.buffer[:total]); err != nil {
		return usbframe.StatusWriteCommandFailed, fmt.Errorf("usbdevice: write command: %w", err)
	}

	return u.readStatusLocked()
}

// readStatusLocked reads and validates a single trailing 16-byte status
// frame.
func (u *UsbLink) readStatusLocked() (usbframe.Status, error) {
	if _, err := u.transferOutLocked(u.buffer[:usbframe.HeaderSize]); err != nil {
		return usbframe.StatusReadStatusFailed, fmt.Errorf("usbdevice: read status: %w", err)
	}

	frame, err := usbframe.DecodeStatusFrame(u.buffer[:usbframe.HeaderSize])
	if err != nil {
		if errors.Is(err, usbframe.ErrInvalidMagic) {
			return usbframe.StatusInvalidMagicWord, err
		}
		return usbframe.StatusReadStatusFailed, err
	}

	logStatusDetail(frame.Status)
	return frame.Status, nil
}

var errInvalidCommandSize = errors.New("command size exceeds buffer")

// logStatusDetail logs host-reported error codes only; Success and the
// internal-only codes are passed through silently (mirrors
// usbLogStatusDetail's silent default for Success/internal codes).
func logStatusDetail(status usbframe.Status) {
	switch status {
	case usbframe.StatusInvalidMagicWord,
		usbframe.StatusUnsupportedCommand, usbframe.StatusUnsupportedAbiVersion,
		usbframe.StatusMalformedCommand, usbframe.StatusHostIoError:
		log.Printf("usbdevice: host reported %s", status)
	}
}
