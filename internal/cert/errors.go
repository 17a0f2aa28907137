package cert

import "errors"

var (
	ErrInvalidArgument  = errors.New("cert: invalid argument")
	ErrNotFound         = errors.New("cert: certificate not found")
	ErrSizeOutOfRange   = errors.New("cert: size out of range")
	ErrShortRead        = errors.New("cert: short read")
	ErrUnknownSigType   = errors.New("cert: unknown signature type")
	ErrUnknownPubKey    = errors.New("cert: unknown public key type")
	ErrLengthMismatch   = errors.New("cert: length mismatch")
	ErrMalformed        = errors.New("cert: malformed certificate")
	ErrBadIssuerPrefix  = errors.New("cert: issuer does not start with Root-")
	ErrIssuerTooLong    = errors.New("cert: issuer tail exceeds 63 bytes")
	ErrEmptyIssuerTail  = errors.New("cert: empty issuer tail")
)
