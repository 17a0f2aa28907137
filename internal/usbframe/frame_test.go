package usbframe_test

import (
	"testing"

	"nxdt/internal/usbframe"
)

func TestCommandHeaderRoundTrip(t *testing.T) {
	h := usbframe.PrepareCommandHeader(usbframe.CmdSendFileProperties, 42)
	encoded := h.Encode()
	if len(encoded) != usbframe.HeaderSize {
		t.Fatalf("encoded length = %d, want %d", len(encoded), usbframe.HeaderSize)
	}
	// Magic is always transmitted big-endian: "NXDT".
	if encoded[0] != 'N' || encoded[1] != 'X' || encoded[2] != 'D' || encoded[3] != 'T' {
		t.Fatalf("magic bytes = %q, want NXDT", encoded[0:4])
	}

	decoded, err := usbframe.DecodeCommandHeader(encoded)
	if err != nil {
		t.Fatalf("DecodeCommandHeader: %v", err)
	}
	if decoded != h {
		t.Fatalf("decoded = %+v, want %+v", decoded, h)
	}
}

func TestStatusFrameRoundTrip(t *testing.T) {
	s := usbframe.NewStatusFrame(usbframe.StatusUnsupportedCommand)
	encoded := s.Encode()
	decoded, err := usbframe.DecodeStatusFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeStatusFrame: %v", err)
	}
	if decoded != s {
		t.Fatalf("decoded = %+v, want %+v", decoded, s)
	}
}

func TestDecodeCommandHeaderBadMagic(t *testing.T) {
	buf := make([]byte, usbframe.HeaderSize)
	buf[0], buf[1], buf[2], buf[3] = 'X', 'X', 'X', 'X'
	if _, err := usbframe.DecodeCommandHeader(buf); err != usbframe.ErrInvalidMagic {
		t.Fatalf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestSendFilePropertiesBlockRoundTrip(t *testing.T) {
	b := usbframe.SendFilePropertiesBlock{FileSize: 0x2000, Filename: "dump.bin"}
	encoded, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(encoded) != usbframe.SendFilePropertiesBlockSize {
		t.Fatalf("len = %d, want %d", len(encoded), usbframe.SendFilePropertiesBlockSize)
	}
	decoded, err := usbframe.DecodeSendFilePropertiesBlock(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != b {
		t.Fatalf("decoded = %+v, want %+v", decoded, b)
	}
}

func TestSendFilePropertiesBlockRejectsEmptyName(t *testing.T) {
	b := usbframe.SendFilePropertiesBlock{FileSize: 1, Filename: ""}
	if _, err := b.Encode(); err == nil {
		t.Fatal("expected error for empty filename")
	}
}

func TestStartSessionBlockRoundTrip(t *testing.T) {
	b := usbframe.StartSessionBlock{AppVerMajor: 1, AppVerMinor: 2, AppVerMicro: 3, AbiVersion: usbframe.AbiVersion}
	encoded := b.Encode()
	decoded, err := usbframe.DecodeStartSessionBlock(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != b {
		t.Fatalf("decoded = %+v, want %+v", decoded, b)
	}
}
