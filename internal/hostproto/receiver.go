package hostproto

import (
	"errors"
	"fmt"
	"io"
	"log"

	"nxdt/internal/usbframe"
	"nxdt/pkg/progress"
)

// FileSink opens a destination for an incoming file. The returned writer
// is closed once size bytes have been written to it, or earlier if the
// transfer fails.
type FileSink interface {
	Create(name string, size uint64) (io.WriteCloser, error)
}

var (
	// ErrSessionEnded is returned by Run after the device sends EndSession.
	ErrSessionEnded = errors.New("hostproto: session ended")

	errNspHeaderUnsupported = errors.New("hostproto: SendNspHeader is not implemented")
)

const chunkSize = 1 << 16

// Receiver drives the host side of one device session: negotiate
// StartSession, then repeatedly accept SendFileProperties followed by its
// file payload, until EndSession.
type Receiver struct {
	transport Transport
	sink      FileSink
	reporter  progress.Reporter
}

// NewReceiver builds a Receiver. reporter may be progress.NopReporter{}.
func NewReceiver(transport Transport, sink FileSink, reporter progress.Reporter) *Receiver {
	return &Receiver{transport: transport, sink: sink, reporter: reporter}
}

// Run processes commands until EndSession arrives or an unrecoverable
// transport error occurs.
func (r *Receiver) Run() error {
	for {
		header, block, err := r.readCommand()
		if err != nil {
			return fmt.Errorf("hostproto: read command: %w", err)
		}

		switch header.Cmd {
		case usbframe.CmdStartSession:
			err = r.handleStartSession(block)
		case usbframe.CmdSendFileProperties:
			err = r.handleSendFileProperties(block)
		case usbframe.CmdSendNspHeader:
			err = r.reply(usbframe.StatusUnsupportedCommand)
		case usbframe.CmdEndSession:
			_ = r.reply(usbframe.StatusSuccess)
			return ErrSessionEnded
		default:
			err = r.reply(usbframe.StatusUnsupportedCommand)
		}
		if err != nil {
			return err
		}
	}
}

func (r *Receiver) readCommand() (usbframe.CommandHeader, []byte, error) {
	buf := make([]byte, usbframe.HeaderSize)
	if _, err := io.ReadFull(readerFunc(r.transport.ReadBulk), buf); err != nil {
		return usbframe.CommandHeader{}, nil, err
	}

	header, err := usbframe.DecodeCommandHeader(buf)
	if err != nil {
		if errors.Is(err, usbframe.ErrInvalidMagic) {
			_ = r.reply(usbframe.StatusInvalidMagicWord)
		}
		return header, nil, err
	}

	if header.CmdBlockSize == 0 {
		return header, nil, nil
	}

	block := make([]byte, header.CmdBlockSize)
	if _, err := io.ReadFull(readerFunc(r.transport.ReadBulk), block); err != nil {
		return header, nil, err
	}
	return header, block, nil
}

func (r *Receiver) handleStartSession(block []byte) error {
	session, err := usbframe.DecodeStartSessionBlock(block)
	if err != nil {
		return r.reply(usbframe.StatusMalformedCommand)
	}
	if session.AbiVersion != usbframe.AbiVersion {
		return r.reply(usbframe.StatusUnsupportedAbiVersion)
	}
	log.Printf("hostproto: session started (device app v%d.%d.%d)",
		session.AppVerMajor, session.AppVerMinor, session.AppVerMicro)
	return r.reply(usbframe.StatusSuccess)
}

func (r *Receiver) handleSendFileProperties(block []byte) error {
	props, err := usbframe.DecodeSendFilePropertiesBlock(block)
	if err != nil {
		return r.reply(usbframe.StatusMalformedCommand)
	}

	w, err := r.sink.Create(props.Filename, props.FileSize)
	if err != nil {
		log.Printf("hostproto: create sink for %q: %v", props.Filename, err)
		return r.reply(usbframe.StatusHostIoError)
	}
	if err := r.reply(usbframe.StatusSuccess); err != nil {
		w.Close()
		return err
	}

	r.reporter.StartFile(props.Filename, props.FileSize)
	err = r.receiveFile(w, props.FileSize)
	r.reporter.FinishFile()
	closeErr := w.Close()
	if err != nil {
		return fmt.Errorf("hostproto: receive %q: %w", props.Filename, err)
	}
	if closeErr != nil {
		return fmt.Errorf("hostproto: close %q: %w", props.Filename, closeErr)
	}

	// One trailing status frame, written after the full payload has been
	// received, mirrors the device side's readStatusLocked.
	return r.reply(usbframe.StatusSuccess)
}

func (r *Receiver) receiveFile(w io.Writer, size uint64) error {
	buf := make([]byte, chunkSize)
	var remaining = size
	for remaining > 0 {
		n := len(buf)
		if uint64(n) > remaining {
			n = int(remaining)
		}
		read, err := r.transport.ReadBulk(buf[:n])
		if err != nil {
			return err
		}
		if _, err := w.Write(buf[:read]); err != nil {
			return err
		}
		remaining -= uint64(read)
		r.reporter.Advance(uint64(read))
	}
	return nil
}

func (r *Receiver) reply(status usbframe.Status) error {
	_, err := r.transport.WriteBulk(usbframe.NewStatusFrame(status).Encode())
	return err
}

// readerFunc adapts a ReadBulk-shaped method to io.Reader so io.ReadFull
// can be used for the fixed-size header and block reads.
type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
