package hostproto_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"nxdt/internal/hostproto"
	"nxdt/internal/usbframe"
	"nxdt/pkg/progress"
)

// pipeTransport lets a test drive both ends of a hostproto.Transport: the
// test writes commands into "toHost" and reads replies from "fromHost".
type pipeTransport struct {
	mu       sync.Mutex
	toHost   bytes.Buffer
	fromHost bytes.Buffer
}

func (p *pipeTransport) ReadBulk(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.toHost.Len() == 0 {
		return 0, io.EOF
	}
	return p.toHost.Read(buf)
}

func (p *pipeTransport) WriteBulk(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fromHost.Write(buf)
}

func (p *pipeTransport) feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toHost.Write(b)
}

func (p *pipeTransport) replies() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fromHost.Bytes()
}

type memSink struct {
	files map[string]*bytes.Buffer
}

func newMemSink() *memSink { return &memSink{files: map[string]*bytes.Buffer{}} }

type nopCloseWriter struct{ *bytes.Buffer }

func (nopCloseWriter) Close() error { return nil }

func (s *memSink) Create(name string, size uint64) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	s.files[name] = buf
	return nopCloseWriter{buf}, nil
}

func commandFrame(cmd usbframe.Command, block []byte) []byte {
	header := usbframe.PrepareCommandHeader(cmd, uint32(len(block))).Encode()
	return append(header, block...)
}

func TestReceiverHandlesFullSession(t *testing.T) {
	pt := &pipeTransport{}
	sink := newMemSink()
	r := hostproto.NewReceiver(pt, sink, progress.NopReporter{})

	startBlock := usbframe.StartSessionBlock{AppVerMajor: 1, AbiVersion: usbframe.AbiVersion}.Encode()
	pt.feed(commandFrame(usbframe.CmdStartSession, startBlock))

	propsBlock, err := usbframe.SendFilePropertiesBlock{FileSize: 5, Filename: "a.bin"}.Encode()
	if err != nil {
		t.Fatalf("encode properties: %v", err)
	}
	pt.feed(commandFrame(usbframe.CmdSendFileProperties, propsBlock))
	pt.feed([]byte("hello"))

	pt.feed(commandFrame(usbframe.CmdEndSession, nil))

	if err := r.Run(); !errors.Is(err, hostproto.ErrSessionEnded) {
		t.Fatalf("Run: got %v, want ErrSessionEnded", err)
	}

	if got := sink.files["a.bin"].String(); got != "hello" {
		t.Fatalf("file contents = %q, want %q", got, "hello")
	}

	replies := pt.replies()
	// StartSession, SendFileProperties, trailing post-transfer status, and
	// EndSession each produce one 16-byte status frame.
	if len(replies) != 4*usbframe.HeaderSize {
		t.Fatalf("got %d reply bytes, want %d", len(replies), 4*usbframe.HeaderSize)
	}
	for i := 0; i < 4; i++ {
		frame, err := usbframe.DecodeStatusFrame(replies[i*usbframe.HeaderSize : (i+1)*usbframe.HeaderSize])
		if err != nil {
			t.Fatalf("decode reply %d: %v", i, err)
		}
		if frame.Status != usbframe.StatusSuccess {
			t.Fatalf("reply %d status = %v, want Success", i, frame.Status)
		}
	}
}

func TestReceiverRejectsBadAbiVersion(t *testing.T) {
	pt := &pipeTransport{}
	sink := newMemSink()
	r := hostproto.NewReceiver(pt, sink, progress.NopReporter{})

	startBlock := usbframe.StartSessionBlock{AbiVersion: usbframe.AbiVersion + 1}.Encode()
	pt.feed(commandFrame(usbframe.CmdStartSession, startBlock))
	pt.feed(commandFrame(usbframe.CmdEndSession, nil))

	if err := r.Run(); !errors.Is(err, hostproto.ErrSessionEnded) {
		t.Fatalf("Run: got %v, want ErrSessionEnded", err)
	}

	replies := pt.replies()
	frame, err := usbframe.DecodeStatusFrame(replies[:usbframe.HeaderSize])
	if err != nil {
		t.Fatalf("decode first reply: %v", err)
	}
	if frame.Status != usbframe.StatusUnsupportedAbiVersion {
		t.Fatalf("status = %v, want UnsupportedAbiVersion", frame.Status)
	}
}

func TestReceiverRejectsReservedSendNspHeader(t *testing.T) {
	pt := &pipeTransport{}
	sink := newMemSink()
	r := hostproto.NewReceiver(pt, sink, progress.NopReporter{})

	pt.feed(commandFrame(usbframe.CmdSendNspHeader, nil))
	pt.feed(commandFrame(usbframe.CmdEndSession, nil))

	if err := r.Run(); !errors.Is(err, hostproto.ErrSessionEnded) {
		t.Fatalf("Run: got %v, want ErrSessionEnded", err)
	}

	frame, err := usbframe.DecodeStatusFrame(pt.replies()[:usbframe.HeaderSize])
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if frame.Status != usbframe.StatusUnsupportedCommand {
		t.Fatalf("status = %v, want UnsupportedCommand", frame.Status)
	}
}
