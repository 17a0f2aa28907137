package usbdevice

import "fmt"

// transferOutLocked posts buf to the OUT endpoint. Callers must already
// hold G (u.mu); this method additionally takes L_out for the duration of
// the endpoint operation, matching the G -> L_out ordering.
func (u *UsbLink) transferOutLocked(buf []byte) (int, error) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	return u.transferLocked(DirectionOut, buf)
}

// transferInLocked posts buf to the IN endpoint under L_in.
func (u *UsbLink) transferInLocked(buf []byte) (int, error) {
	u.inMu.Lock()
	defer u.inMu.Unlock()
	return u.transferLocked(DirectionIn, buf)
}

// transferLocked implements the transfer primitive of §4.3.3: post one
// async URB, wait for completion under either a 1-second timeout (session
// already established) or indefinitely against the exit event (still
// negotiating), and on timeout, exit or a failed completion cancel and
// drain the completion signal.
func (u *UsbLink) transferLocked(dir TransferDirection, buf []byte) (int, error) {
	if !isAligned(buf, TransferAlignment) {
		return 0, fmt.Errorf("usbdevice: transfer buffer is not %d-byte aligned", TransferAlignment)
	}
	if len(buf) == 0 {
		return 0, fmt.Errorf("usbdevice: zero-length transfer")
	}

	tr, err := u.server.PostBufferAsync(dir, buf)
	if err != nil {
		return 0, fmt.Errorf("post async transfer: %w", err)
	}

	sessionWasActive := u.sessionStarted

	if sessionWasActive {
		select {
		case <-tr.Done():
		case <-TimeAfter(TransferTimeout):
			u.abortTransfer(tr, sessionWasActive)
			return 0, ErrTimeout
		}
	} else {
		select {
		case <-tr.Done():
		case <-u.exitCh:
			u.abortTransfer(tr, sessionWasActive)
			return 0, ErrCancelled
		}
	}

	n, err := tr.Result()
	if err != nil {
		u.abortTransfer(tr, sessionWasActive)
		return n, fmt.Errorf("transfer failed: %w", err)
	}
	if n != len(buf) {
		return n, ErrSizeMismatch
	}
	return n, nil
}

// abortTransfer cancels an in-flight transfer and drains its completion
// signal so it is never leaked to a later, unrelated wait. If a session
// was active when the transfer was aborted, the usermode timeout event is
// signalled so DetectionLoop tears the session down on its next wake-up
// (§4.3.3, §5).
func (u *UsbLink) abortTransfer(tr Transfer, sessionWasActive bool) {
	tr.Cancel()
	<-tr.Done()
	if sessionWasActive {
		select {
		case u.timeoutCh <- struct{}{}:
		default:
		}
	}
}
