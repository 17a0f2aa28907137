package usbdevice_test

import (
	"testing"
	"time"

	"nxdt/internal/usbdevice"
	"nxdt/internal/usbdevice/fake"
	"nxdt/internal/usbframe"
)

// standardHandler plays a cooperative host: it ACKs StartSession (if the
// ABI version matches), SendFileProperties and EndSession, and leaves raw
// file-data chunks unanswered so the trailing status read defaults to
// Success, matching how the real protocol only carries one status frame
// per file transfer.
func standardHandler() fake.HostHandler {
	return func(written []byte) ([]byte, error) {
		if len(written) < usbframe.HeaderSize {
			return nil, nil
		}
		hdr, err := usbframe.DecodeCommandHeader(written[:usbframe.HeaderSize])
		if err != nil {
			return nil, nil
		}
		switch hdr.Cmd {
		case usbframe.CmdStartSession:
			block, err := usbframe.DecodeStartSessionBlock(written[usbframe.HeaderSize : usbframe.HeaderSize+usbframe.StartSessionBlockSize])
			if err != nil || block.AbiVersion != usbframe.AbiVersion {
				return usbframe.NewStatusFrame(usbframe.StatusUnsupportedAbiVersion).Encode(), nil
			}
			return usbframe.NewStatusFrame(usbframe.StatusSuccess).Encode(), nil
		case usbframe.CmdSendFileProperties, usbframe.CmdEndSession:
			return usbframe.NewStatusFrame(usbframe.StatusSuccess).Encode(), nil
		default:
			return usbframe.NewStatusFrame(usbframe.StatusUnsupportedCommand).Encode(), nil
		}
	}
}

func waitReady(t *testing.T, u *usbdevice.UsbLink) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if u.IsReady() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("usb link never became ready")
}

func appVersion() usbdevice.AppVersion {
	return usbdevice.AppVersion{Major: 1, Minor: 0, Micro: 0}
}

// TestSendFilePropertiesAndFileData exercises a full S4-style transfer:
// properties, two data chunks, and the trailing status read.
func TestSendFilePropertiesAndFileData(t *testing.T) {
	server := fake.New(standardHandler())
	u := usbdevice.New(server)

	if err := u.Initialize(usbdevice.FirmwareModern, appVersion(), "nxdt", "device"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer u.Exit()

	waitReady(t, u)

	payload := []byte("abcdefgh")
	if err := u.SendFileProperties(uint64(len(payload)), "test.bin"); err != nil {
		t.Fatalf("SendFileProperties: %v", err)
	}

	if err := u.SendFileData(payload[:4], 4); err != nil {
		t.Fatalf("SendFileData (chunk 1): %v", err)
	}
	if err := u.SendFileData(payload[4:], 4); err != nil {
		t.Fatalf("SendFileData (chunk 2): %v", err)
	}
}

// TestSendFilePropertiesRejectsWhenTransferInProgress exercises invariant 6
// (remaining_transfer cannot be clobbered mid-transfer).
func TestSendFilePropertiesRejectsWhenTransferInProgress(t *testing.T) {
	server := fake.New(standardHandler())
	u := usbdevice.New(server)

	if err := u.Initialize(usbdevice.FirmwareModern, appVersion(), "nxdt", "device"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer u.Exit()

	waitReady(t, u)

	if err := u.SendFileProperties(8, "a.bin"); err != nil {
		t.Fatalf("SendFileProperties: %v", err)
	}
	if err := u.SendFileProperties(8, "b.bin"); err != usbdevice.ErrTransferInProgress {
		t.Fatalf("SendFileProperties during transfer: got %v, want ErrTransferInProgress", err)
	}
}

// TestStartSessionRejectsBadMagic exercises S5: a status frame with the
// wrong magic word is reported as StatusInvalidMagicWord and the session is
// never established.
func TestStartSessionRejectsBadMagic(t *testing.T) {
	handler := func(written []byte) ([]byte, error) {
		if len(written) < usbframe.HeaderSize {
			return nil, nil
		}
		corrupt := usbframe.NewStatusFrame(usbframe.StatusSuccess).Encode()
		corrupt[0] = 0x00 // clobber the magic word
		return corrupt, nil
	}

	server := fake.New(handler)
	u := usbdevice.New(server)

	if err := u.Initialize(usbdevice.FirmwareModern, appVersion(), "nxdt", "device"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer u.Exit()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if u.IsReady() {
		t.Fatal("session should not be established when the host replies with a bad magic word")
	}
}

// TestExitIsPromptDuringStartSession exercises S6 / invariant 8 at the
// UsbLink level: Exit must return quickly even while the detection loop is
// blocked waiting on a host that never responds.
func TestExitIsPromptDuringStartSession(t *testing.T) {
	block := make(chan struct{})
	handler := func(written []byte) ([]byte, error) {
		if len(written) >= usbframe.HeaderSize {
			hdr, err := usbframe.DecodeCommandHeader(written[:usbframe.HeaderSize])
			if err == nil && hdr.Cmd == usbframe.CmdStartSession {
				<-block // never respond; simulates a hung host
			}
		}
		return usbframe.NewStatusFrame(usbframe.StatusSuccess).Encode(), nil
	}

	server := fake.New(handler)
	u := usbdevice.New(server)

	if err := u.Initialize(usbdevice.FirmwareModern, appVersion(), "nxdt", "device"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	time.Sleep(20 * time.Millisecond) // let the loop reach StartSession

	start := time.Now()
	u.Exit()
	elapsed := time.Since(start)
	close(block)

	if elapsed > 50*time.Millisecond {
		t.Fatalf("Exit took %v, want well under the 1s transfer timeout", elapsed)
	}
}
