package usbdevice

import (
	"errors"
	"log"

	"nxdt/internal/usbframe"
)

// The methods below implement detection.Driver, letting DetectionLoop drive
// UsbLink's session lifecycle without either package importing the other's
// concrete types.

// StateChanged satisfies detection.Driver.
func (u *UsbLink) StateChanged() <-chan struct{} {
	return u.server.StateChanged()
}

// TimedOut satisfies detection.Driver.
func (u *UsbLink) TimedOut() <-chan struct{} {
	return u.timeoutCh
}

// ExitSignal satisfies detection.Driver. It is the same channel
// transferLocked selects on while negotiating a session, so a caller
// blocked inside StartSession observes the same exit as DetectionLoop's own
// top-level wait.
func (u *UsbLink) ExitSignal() <-chan struct{} {
	return u.exitCh
}

// RefreshHostAvailability re-evaluates host presence by querying platform
// state (available iff state code == 5, §4.4) and records the result.
func (u *UsbLink) RefreshHostAvailability() bool {
	state, err := u.server.GetState()
	available := err == nil && state == 5

	u.mu.Lock()
	u.hostAvailable = available
	u.mu.Unlock()

	return available
}

// ResetSessionState clears session_started and remaining_transfer (§4.4
// step 3).
func (u *UsbLink) ResetSessionState() {
	u.mu.Lock()
	u.sessionStarted = false
	u.remainingTransfer = 0
	u.mu.Unlock()
}

// StartSession attempts the StartSession handshake. It blocks until the
// host acknowledges, a protocol error is returned, or exit fires; the
// latter is reported via exitRequested so DetectionLoop can terminate
// promptly (§4.3.3, §8 invariant 8).
func (u *UsbLink) StartSession() (started bool, exitRequested bool) {
	u.mu.Lock()

	block := usbframe.StartSessionBlock{
		AppVerMajor: u.appVersion.Major,
		AppVerMinor: u.appVersion.Minor,
		AppVerMicro: u.appVersion.Micro,
		AbiVersion:  usbframe.AbiVersion,
	}.Encode()

	status, err := u.sendCommandLocked(usbframe.CmdStartSession, block)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			u.mu.Unlock()
			return false, true
		}
		log.Printf("usbdevice: start session: %v", err)
		u.mu.Unlock()
		return false, false
	}

	ok := status == usbframe.StatusSuccess
	u.sessionStarted = ok
	u.mu.Unlock()

	if ok {
		log.Println("usbdevice: session started")
	}
	return ok, false
}

// EndSessionBestEffort sends EndSession without propagating failures,
// mirroring usbEndSession's best-effort teardown.
func (u *UsbLink) EndSessionBestEffort() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.sessionStarted {
		return
	}

	if _, err := u.sendCommandLocked(usbframe.CmdEndSession, nil); err != nil {
		log.Printf("usbdevice: end session: %v", err)
	}
	u.sessionStarted = false
	u.remainingTransfer = 0
}
