package usbdevice

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"nxdt/internal/detection"
	"nxdt/internal/usbframe"
)

// FirmwareGeneration selects which descriptor-advertisement path
// Initialize takes (§4.3.2).
type FirmwareGeneration int

const (
	FirmwareLegacy FirmwareGeneration = iota // < 5.0
	FirmwareModern                           // >= 5.0
)

// AppVersion is the three-component application version advertised in
// StartSession and in the serial-number string descriptor.
type AppVersion struct {
	Major, Minor, Micro uint8
}

var (
	ErrAlreadyInitialized = errors.New("usbdevice: already initialized")
	ErrNotReady           = errors.New("usbdevice: link not ready")
	ErrTransferInProgress = errors.New("usbdevice: a transfer is already in progress")
	ErrInvalidChunkSize   = errors.New("usbdevice: chunk size out of range")
	ErrInvalidFilename    = errors.New("usbdevice: invalid filename")
	ErrTimeout            = errors.New("usbdevice: transfer timed out")
	ErrCancelled          = errors.New("usbdevice: transfer cancelled")
	ErrSizeMismatch       = errors.New("usbdevice: transferred size mismatch")
)

// UsbLink is the device-side USB transfer protocol engine (§4.3). The
// single process-wide instance is constructed once and passed to callers
// (§9 "Global state").
type UsbLink struct {
	server DeviceServer

	// mu is G: guards descriptor/session state and the shared transfer
	// buffer. ifaceMu, inMu and outMu are L_iface, L_in and L_out. Where
	// more than one is held at once the order is always
	// G -> L_iface -> L_in -> L_out.
	mu      sync.RWMutex
	ifaceMu sync.RWMutex
	inMu    sync.RWMutex
	outMu   sync.RWMutex

	// lifecycleMu guards initialized, exitCh and loop, independently of G.
	// StartSession can hold G for as long as a transfer is outstanding
	// (indefinitely, while negotiating), so Exit must be able to close
	// exitCh without first taking G, or it could never interrupt a
	// StartSession call blocked inside a transfer.
	lifecycleMu sync.Mutex

	initialized    bool
	fw             FirmwareGeneration
	appVersion     AppVersion
	manufacturer   string
	product        string
	interfaceIndex int

	buffer []byte

	hostAvailable     bool
	sessionStarted    bool
	remainingTransfer uint64

	exitCh    chan struct{}
	timeoutCh chan struct{}
	loop      *detection.Loop
}

// New constructs a UsbLink driving server.
func New(server DeviceServer) *UsbLink {
	return &UsbLink{server: server}
}

// Initialize allocates the transfer buffer, advertises descriptors for the
// requested firmware generation, registers the interface and endpoints,
// and spawns the detection loop (§4.3 "initialize()").
func (u *UsbLink) Initialize(fw FirmwareGeneration, appVersion AppVersion, manufacturer, product string) error {
	u.lifecycleMu.Lock()
	defer u.lifecycleMu.Unlock()

	if u.initialized {
		return ErrAlreadyInitialized
	}

	u.mu.Lock()
	u.buffer = newAlignedBuffer(TransferBufferSize, TransferAlignment)
	u.fw = fw
	u.appVersion = appVersion
	u.manufacturer = manufacturer
	u.product = product

	serial := fmt.Sprintf("%d.%d.%d", appVersion.Major, appVersion.Minor, appVersion.Micro)

	err := u.advertise(fw, manufacturer, product, serial)
	if err != nil {
		u.buffer = nil
	}
	u.mu.Unlock()
	if err != nil {
		return fmt.Errorf("usbdevice: initialize: %w", err)
	}

	u.exitCh = make(chan struct{})
	u.timeoutCh = make(chan struct{}, 1)
	u.loop = detection.New(u)
	u.loop.Start()
	// Nudge the loop to check host availability immediately instead of
	// waiting for the first real state-change event, so a host already
	// present at boot is picked up without needing a fresh plug event.
	u.timeoutCh <- struct{}{}
	u.initialized = true

	log.Printf("usbdevice: initialized (firmware generation %v)", fw)
	return nil
}

// advertise performs descriptor advertisement and interface/endpoint
// registration for the selected firmware generation (§4.3.2).
func (u *UsbLink) advertise(fw FirmwareGeneration, manufacturer, product, serial string) error {
	if fw == FirmwareModern {
		for _, speed := range []USBSpeed{SpeedFull, SpeedHigh, SpeedSuper} {
			desc := buildModernDeviceDescriptor(speed, manufacturer, product, serial)
			if err := u.server.SetDeviceDescriptor(speed, desc); err != nil {
				return fmt.Errorf("set device descriptor (%v): %w", speed, err)
			}
		}
		if err := u.server.SetBinaryObjectStore(buildBOS()); err != nil {
			return fmt.Errorf("set BOS: %w", err)
		}
	} else {
		info := buildLegacyDeviceInfo(manufacturer, product, serial)
		if err := u.server.SetLegacyDeviceInfo(info); err != nil {
			return fmt.Errorf("set legacy device info: %w", err)
		}
	}

	u.ifaceMu.Lock()
	u.inMu.Lock()
	u.outMu.Lock()
	err := u.registerInterfaceLocked(fw)
	u.outMu.Unlock()
	u.inMu.Unlock()
	u.ifaceMu.Unlock()
	if err != nil {
		return err
	}

	if fw == FirmwareModern {
		if err := u.server.Enable(); err != nil {
			return fmt.Errorf("enable: %w", err)
		}
	}
	return nil
}

func (u *UsbLink) registerInterfaceLocked(fw FirmwareGeneration) error {
	packetSize := uint16(PacketSizeFull)
	if fw == FirmwareLegacy {
		packetSize = PacketSizeHigh
	}

	idx, err := u.server.RegisterInterface(InterfaceDescriptor{
		BNumEndpoints:      2,
		BInterfaceClass:    ClassVendorSpec,
		BInterfaceSubClass: ClassVendorSpec,
		BInterfaceProtocol: ClassVendorSpec,
	})
	if err != nil {
		return fmt.Errorf("register interface: %w", err)
	}
	u.interfaceIndex = idx

	for _, dir := range []TransferDirection{DirectionIn, DirectionOut} {
		if err := u.server.RegisterEndpoint(idx, EndpointDescriptor{
			Direction:      dir,
			WMaxPacketSize: packetSize,
		}); err != nil {
			return fmt.Errorf("register endpoint %v: %w", dir, err)
		}
	}

	if err := u.server.EnableInterface(idx); err != nil {
		return fmt.Errorf("enable interface: %w", err)
	}
	return nil
}

// Exit signals the detection loop to terminate, joins it, then tears down
// interface state and frees the transfer buffer (§4.3 "exit()", §5
// "exit() ordering").
//
// The detection loop is joined BEFORE G is acquired: the loop may be
// blocked inside StartSession holding G for the full duration of a
// transfer, so acquiring G here first would deadlock against it. Exit only
// takes lifecycleMu to flip initialized and grab exitCh/loop, which never
// conflicts with a thread sitting inside a transfer's select.
func (u *UsbLink) Exit() {
	u.lifecycleMu.Lock()
	if !u.initialized {
		u.lifecycleMu.Unlock()
		return
	}
	loop := u.loop
	exitCh := u.exitCh
	u.initialized = false
	u.lifecycleMu.Unlock()

	close(exitCh)
	loop.Join()

	u.mu.Lock()
	u.buffer = nil
	u.hostAvailable = false
	u.sessionStarted = false
	u.remainingTransfer = 0
	u.mu.Unlock()
	log.Println("usbdevice: exited")
}

// IsReady reports host_available && session_started (§4.3).
func (u *UsbLink) IsReady() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.hostAvailable && u.sessionStarted
}

// SendFileProperties announces an upcoming file transfer (§4.3,
// "send_file_properties").
func (u *UsbLink) SendFileProperties(size uint64, name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !(u.hostAvailable && u.sessionStarted) {
		return ErrNotReady
	}
	if u.remainingTransfer != 0 {
		return ErrTransferInProgress
	}
	if len(name) == 0 || len(name) >= usbframe.FsMaxPath {
		return ErrInvalidFilename
	}

	block, err := usbframe.SendFilePropertiesBlock{FileSize: size, Filename: name}.Encode()
	if err != nil {
		return fmt.Errorf("usbdevice: send_file_properties: %w", err)
	}

	status, err := u.sendCommandLocked(usbframe.CmdSendFileProperties, block)
	if err != nil {
		return fmt.Errorf("usbdevice: send_file_properties: %w", err)
	}
	if status != usbframe.StatusSuccess {
		return fmt.Errorf("usbdevice: send_file_properties: host status %s", status)
	}

	u.remainingTransfer = size
	return nil
}

// SendFileData writes the first n bytes of buf to the IN endpoint,
// decrementing remaining_transfer; once it reaches zero, one trailing
// status frame is read (§4.3, "send_file_data").
func (u *UsbLink) SendFileData(buf []byte, n int) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !(u.hostAvailable && u.sessionStarted) {
		return ErrNotReady
	}
	if n <= 0 || uint64(n) > u.remainingTransfer || n > len(u.buffer) {
		return ErrInvalidChunkSize
	}

	payload := buf[:n]
	if !isAligned(payload, TransferAlignment) {
		copy(u.buffer[:n], payload)
		payload = u.buffer[:n]
	}

	written, err := u.transferInLocked(payload)
	if err != nil {
		return fmt.Errorf("usbdevice: send_file_data: %w", err)
	}
	if written != n {
		return fmt.Errorf("usbdevice: send_file_data: %w", ErrSizeMismatch)
	}
	if err := u.server.SetZLT(true); err != nil {
		log.Printf("usbdevice: set ZLT: %v", err)
	}

	u.remainingTransfer -= uint64(n)
	if u.remainingTransfer == 0 {
		if _, err := u.readStatusLocked(); err != nil {
			return fmt.Errorf("usbdevice: send_file_data: reading trailing status: %w", err)
		}
	}
	return nil
}
