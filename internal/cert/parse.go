package cert

import "encoding/binary"

// ParseType recovers the certificate type from a raw on-disk buffer,
// following the exact byte-offset walk of the platform's certificate
// header: sig_type, signature block, issuer, pub_key_type, name, cert_id,
// public key block. The running offset must land exactly on len(data);
// anything else is a length mismatch.
func ParseType(data []byte) (Type, error) {
	if len(data) < sigTypeFieldSize {
		return Invalid, ErrShortRead
	}

	sig := SignatureAlgorithm(binary.BigEndian.Uint32(data[0:4]))
	sigSize, ok := sigBlockSize(sig)
	if !ok {
		return Invalid, ErrUnknownSigType
	}

	offset := sigTypeFieldSize + sigSize + issuerFieldSize
	if len(data) < offset+pubKeyTypeFieldSize {
		return Invalid, ErrLengthMismatch
	}

	pk := PubKeyAlgorithm(binary.BigEndian.Uint32(data[offset : offset+4]))
	offset += pubKeyTypeFieldSize + nameFieldSize + certIDFieldSize

	pkSize, ok := pubKeyBlockSize(pk)
	if !ok {
		return Invalid, ErrUnknownPubKey
	}
	offset += pkSize

	if offset != len(data) {
		return Invalid, ErrLengthMismatch
	}

	t := certType(sig, pk)
	if t == Invalid {
		return Invalid, ErrMalformed
	}
	return t, nil
}
