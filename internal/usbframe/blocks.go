package usbframe

import (
	"encoding/binary"
	"fmt"
)

// FsMaxPath is the platform's maximum path length, used to size the
// filename field of SendFileProperties (§6).
const FsMaxPath = 0x301

// StartSessionBlockSize is the fixed size of the StartSession command
// block: three version bytes, the ABI version byte, and 12 reserved bytes.
const StartSessionBlockSize = 16

// StartSessionBlock is the StartSession command payload.
type StartSessionBlock struct {
	AppVerMajor uint8
	AppVerMinor uint8
	AppVerMicro uint8
	AbiVersion  uint8
}

func (b StartSessionBlock) Encode() []byte {
	buf := make([]byte, StartSessionBlockSize)
	buf[0] = b.AppVerMajor
	buf[1] = b.AppVerMinor
	buf[2] = b.AppVerMicro
	buf[3] = b.AbiVersion
	return buf
}

func DecodeStartSessionBlock(buf []byte) (StartSessionBlock, error) {
	if len(buf) != StartSessionBlockSize {
		return StartSessionBlock{}, fmt.Errorf("usbframe: StartSession block must be %d bytes, got %d", StartSessionBlockSize, len(buf))
	}
	return StartSessionBlock{
		AppVerMajor: buf[0],
		AppVerMinor: buf[1],
		AppVerMicro: buf[2],
		AbiVersion:  buf[3],
	}, nil
}

// SendFilePropertiesBlockSize is the fixed size of the SendFileProperties
// command block (§6): file_size(8) + filename_length(4) + reserved(4) +
// filename(FsMaxPath) + reserved(15).
const SendFilePropertiesBlockSize = 8 + 4 + 4 + FsMaxPath + 15

// SendFilePropertiesBlock is the SendFileProperties command payload.
type SendFilePropertiesBlock struct {
	FileSize uint64
	Filename string
}

func (b SendFilePropertiesBlock) Encode() ([]byte, error) {
	if len(b.Filename) == 0 || len(b.Filename) >= FsMaxPath {
		return nil, fmt.Errorf("usbframe: filename length %d out of range [1,%d)", len(b.Filename), FsMaxPath)
	}
	buf := make([]byte, SendFilePropertiesBlockSize)
	binary.LittleEndian.PutUint64(buf[0:8], b.FileSize)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(b.Filename)))
	copy(buf[16:16+FsMaxPath], b.Filename)
	return buf, nil
}

func DecodeSendFilePropertiesBlock(buf []byte) (SendFilePropertiesBlock, error) {
	if len(buf) != SendFilePropertiesBlockSize {
		return SendFilePropertiesBlock{}, fmt.Errorf("usbframe: SendFileProperties block must be %d bytes, got %d", SendFilePropertiesBlockSize, len(buf))
	}
	fileSize := binary.LittleEndian.Uint64(buf[0:8])
	nameLen := binary.LittleEndian.Uint32(buf[8:12])
	if int(nameLen) >= FsMaxPath {
		return SendFilePropertiesBlock{}, fmt.Errorf("usbframe: filename_length %d exceeds FS_MAX_PATH", nameLen)
	}
	name := string(buf[16 : 16+nameLen])
	return SendFilePropertiesBlock{FileSize: fileSize, Filename: name}, nil
}
