// Package fake provides an in-memory usbdevice.DeviceServer that simulates
// a host on the other end of the wire, for unit and scenario tests. Async
// completion is modeled with a done channel closed exactly once, the same idiom the
// retrieved gousb transfer code uses for its own libusb URB lifecycle
// (submit/wait/cancel).
package fake

import (
	"errors"
	"sync"

	"nxdt/internal/usbdevice"
	"nxdt/internal/usbframe"
)

// HostHandler is invoked by the fake server, on its own goroutine, whenever
// the device posts a transfer on the IN endpoint (device to host), playing
// the role of the real host application in scenario tests.
type HostHandler func(written []byte) (reply []byte, err error)

// Server is a fake usbdevice.DeviceServer.
type Server struct {
	mu sync.Mutex

	state        int
	stateCh      chan struct{}
	zlt          bool
	lastWrite    []byte
	pendingReply []byte

	handler HostHandler
}

// New constructs a fake server. State starts at 5 (host available) unless
// overridden with SetState.
func New(handler HostHandler) *Server {
	return &Server{state: 5, stateCh: make(chan struct{}, 1), handler: handler}
}

func (s *Server) SetState(state int) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	select {
	case s.stateCh <- struct{}{}:
	default:
	}
}

func (s *Server) GetState() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *Server) StateChanged() <-chan struct{} { return s.stateCh }

func (s *Server) SetDeviceDescriptor(usbdevice.USBSpeed, usbdevice.DeviceDescriptor) error {
	return nil
}
func (s *Server) SetBinaryObjectStore([]byte) error                          { return nil }
func (s *Server) SetLegacyDeviceInfo(usbdevice.LegacyDeviceInfo) error       { return nil }
func (s *Server) RegisterInterface(usbdevice.InterfaceDescriptor) (int, error) { return 0, nil }
func (s *Server) RegisterEndpoint(int, usbdevice.EndpointDescriptor) error   { return nil }
func (s *Server) EnableInterface(int) error                                 { return nil }
func (s *Server) Enable() error                                             { return nil }

func (s *Server) SetZLT(enabled bool) error {
	s.mu.Lock()
	s.zlt = enabled
	s.mu.Unlock()
	return nil
}

// ZLT reports the last value SetZLT was called with.
func (s *Server) ZLT() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zlt
}

var ErrNoHandler = errors.New("fake: no host handler installed")

// PostBufferAsync resolves IN transfers (the device writing
// command/file-data frames to the host, per usb.c's usbWrite on
// endpoint_in) against the installed HostHandler, producing a reply buffer
// consumed by the matching OUT transfer (the device reading the host's
// status frame back, per usbRead on endpoint_out).
func (s *Server) PostBufferAsync(dir usbdevice.TransferDirection, buf []byte) (usbdevice.Transfer, error) {
	t := &transfer{done: make(chan struct{})}

	switch dir {
	case usbdevice.DirectionIn:
		data := append([]byte(nil), buf...)
		s.mu.Lock()
		s.lastWrite = data
		handler := s.handler
		s.mu.Unlock()

		if handler == nil {
			t.finish(0, ErrNoHandler)
			return t, nil
		}
		// Run the handler on its own goroutine so a handler that blocks
		// (simulating a hung or slow host in tests) doesn't prevent
		// transferLocked's select from racing it against a timeout or
		// exit signal, the same way a real URB completes independently
		// of the submitting thread.
		go func() {
			reply, err := handler(data)
			s.mu.Lock()
			s.pendingReply = reply
			s.mu.Unlock()
			t.finish(len(buf), err)
		}()

	case usbdevice.DirectionOut:
		s.mu.Lock()
		reply := s.pendingReply
		s.pendingReply = nil
		s.mu.Unlock()

		if reply == nil {
			reply = usbframe.NewStatusFrame(usbframe.StatusSuccess).Encode()
		}
		n := copy(buf, reply)
		t.finish(n, nil)
	}

	return t, nil
}

// LastWrite returns the most recent buffer posted to the IN endpoint.
func (s *Server) LastWrite() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWrite
}
