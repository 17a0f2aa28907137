// Package usbframe implements the on-wire command/status frame codec of
// the device-side USB transfer protocol: a 16-byte header with a
// big-endian magic word and little-endian everything else.
package usbframe

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the literal ASCII "NXDT", transmitted big-endian (§4.3.1).
const Magic uint32 = 0x4E584454

// AbiVersion is the protocol ABI version carried in StartSession.
const AbiVersion uint8 = 1

// HeaderSize is the fixed size of a command or status frame header.
const HeaderSize = 16

// Command codes (§4.3.1).
type Command uint32

const (
	CmdStartSession        Command = 0
	CmdSendFileProperties  Command = 1
	CmdSendNspHeader       Command = 2 // reserved, unimplemented
	CmdEndSession          Command = 3
)

// Status codes (§4.3.1). The internal-only codes (InvalidCommandSize,
// WriteCommandFailed, ReadStatusFailed) are never sent on the wire by the
// host; they are used locally to report transport failures through the
// same type as host-reported codes.
type Status uint32

const (
	StatusSuccess Status = iota
	StatusInvalidCommandSize
	StatusWriteCommandFailed
	StatusReadStatusFailed
	StatusInvalidMagicWord
	StatusUnsupportedCommand
	StatusUnsupportedAbiVersion
	StatusMalformedCommand
	StatusHostIoError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusInvalidCommandSize:
		return "InvalidCommandSize"
	case StatusWriteCommandFailed:
		return "WriteCommandFailed"
	case StatusReadStatusFailed:
		return "ReadStatusFailed"
	case StatusInvalidMagicWord:
		return "InvalidMagicWord"
	case StatusUnsupportedCommand:
		return "UnsupportedCommand"
	case StatusUnsupportedAbiVersion:
		return "UnsupportedAbiVersion"
	case StatusMalformedCommand:
		return "MalformedCommand"
	case StatusHostIoError:
		return "HostIoError"
	default:
		return fmt.Sprintf("Status(%d)", uint32(s))
	}
}

var ErrInvalidMagic = errors.New("usbframe: invalid magic word")

// CommandHeader is the 16-byte header prefixed to every command frame.
type CommandHeader struct {
	Magic        uint32
	Cmd          Command
	CmdBlockSize uint32
	// Reserved [4]byte, always zero; not represented as a field since it
	// is never inspected.
}

// Encode writes the header to a 16-byte wire buffer.
func (h CommandHeader) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Cmd))
	binary.LittleEndian.PutUint32(buf[8:12], h.CmdBlockSize)
	return buf
}

// DecodeCommandHeader parses a 16-byte wire buffer into a CommandHeader.
func DecodeCommandHeader(buf []byte) (CommandHeader, error) {
	if len(buf) != HeaderSize {
		return CommandHeader{}, fmt.Errorf("usbframe: command header must be %d bytes, got %d", HeaderSize, len(buf))
	}
	h := CommandHeader{
		Magic:        binary.BigEndian.Uint32(buf[0:4]),
		Cmd:          Command(binary.LittleEndian.Uint32(buf[4:8])),
		CmdBlockSize: binary.LittleEndian.Uint32(buf[8:12]),
	}
	if h.Magic != Magic {
		return h, ErrInvalidMagic
	}
	return h, nil
}

// PrepareCommandHeader builds a header for cmd with the given block size,
// mirroring usbPrepareCommandHeader.
func PrepareCommandHeader(cmd Command, blockSize uint32) CommandHeader {
	return CommandHeader{Magic: Magic, Cmd: cmd, CmdBlockSize: blockSize}
}

// StatusFrame is the 16-byte frame the host replies with.
type StatusFrame struct {
	Magic  uint32
	Status Status
	// Reserved [8]byte, always zero.
}

func (s StatusFrame) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], s.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(s.Status))
	return buf
}

func DecodeStatusFrame(buf []byte) (StatusFrame, error) {
	if len(buf) != HeaderSize {
		return StatusFrame{}, fmt.Errorf("usbframe: status frame must be %d bytes, got %d", HeaderSize, len(buf))
	}
	s := StatusFrame{
		Magic:  binary.BigEndian.Uint32(buf[0:4]),
		Status: Status(binary.LittleEndian.Uint32(buf[4:8])),
	}
	if s.Magic != Magic {
		return s, ErrInvalidMagic
	}
	return s, nil
}

// NewStatusFrame builds a well-formed status frame carrying status.
func NewStatusFrame(status Status) StatusFrame {
	return StatusFrame{Magic: Magic, Status: status}
}
