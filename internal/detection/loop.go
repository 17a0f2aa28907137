// Package detection implements DetectionLoop, the background task that
// drives UsbLink's session lifecycle from three events: a platform-kernel
// USB state-change event, a user-space timeout event, and a user-space
// exit event (§4.4).
package detection

// Driver is the narrow slice of UsbLink that DetectionLoop needs, so the
// two packages can be tested independently of one another.
type Driver interface {
	// StateChanged delivers a value whenever the platform USB connection
	// state changes.
	StateChanged() <-chan struct{}
	// TimedOut delivers a value when a transfer that times out or fails
	// during an active session forces a session reset.
	TimedOut() <-chan struct{}
	// ExitSignal is closed exactly once, when the owner wants the loop to
	// terminate. It is also the channel any in-flight StartSession call
	// selects on, so an exit fires promptly even mid-negotiation.
	ExitSignal() <-chan struct{}

	// RefreshHostAvailability re-evaluates and records host presence,
	// returning the new value.
	RefreshHostAvailability() bool
	// ResetSessionState clears session_started and remaining_transfer.
	ResetSessionState()
	// StartSession attempts the StartSession handshake. It may block
	// indefinitely; exitRequested reports that ExitSignal fired while
	// waiting.
	StartSession() (started bool, exitRequested bool)
	// EndSessionBestEffort sends EndSession without propagating failures.
	EndSessionBestEffort()
}

// Loop is a single background task driving one Driver (§4.4).
type Loop struct {
	driver Driver
	doneCh chan struct{}
}

// New builds a Loop over driver. Call Start to run it.
func New(driver Driver) *Loop {
	return &Loop{driver: driver, doneCh: make(chan struct{})}
}

// Start launches the loop in its own goroutine.
func (l *Loop) Start() {
	go l.run()
}

// Join blocks until the loop has terminated. Callers are responsible for
// triggering termination by closing the driver's ExitSignal channel
// first; Join does not do that itself, so the caller can release any
// locks it must not hold while the loop exits a blocking StartSession
// call (§5 "exit() ordering").
func (l *Loop) Join() {
	<-l.doneCh
}

func (l *Loop) run() {
	defer close(l.doneCh)

	sessionActive := false

	for {
		select {
		case <-l.driver.StateChanged():
		case <-l.driver.TimedOut():
		case <-l.driver.ExitSignal():
			if sessionActive {
				l.driver.EndSessionBestEffort()
			}
			return
		}

		available := l.driver.RefreshHostAvailability()
		l.driver.ResetSessionState()
		sessionActive = false

		if available {
			started, exitRequested := l.driver.StartSession()
			if exitRequested {
				if started {
					l.driver.EndSessionBestEffort()
				}
				return
			}
			sessionActive = started
		}
	}
}
