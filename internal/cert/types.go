// Package cert implements lookup, type recovery and chain assembly for
// the console's signed certificate store.
package cert

import "fmt"

// SignatureAlgorithm identifies the signature half of a certificate's type.
type SignatureAlgorithm uint32

const (
	SigRsa4096Sha1 SignatureAlgorithm = 0x10000
	SigRsa2048Sha1 SignatureAlgorithm = 0x10001
	SigEcsda240Sha1 SignatureAlgorithm = 0x10002
	SigRsa4096Sha256 SignatureAlgorithm = 0x10003
	SigRsa2048Sha256 SignatureAlgorithm = 0x10004
	SigEcsda240Sha256 SignatureAlgorithm = 0x10005
)

// PubKeyAlgorithm identifies the public-key half of a certificate's type.
type PubKeyAlgorithm uint32

const (
	PubKeyRsa4096 PubKeyAlgorithm = 0
	PubKeyRsa2048 PubKeyAlgorithm = 1
	PubKeyEcsda240 PubKeyAlgorithm = 2
)

// Type is the Cartesian-product tag of a certificate's (signature, public
// key) algorithm pair. Six combinations are valid; the zero value is Invalid.
type Type uint8

const (
	Invalid Type = iota
	SigRsa4096Sha1PubKeyRsa4096
	SigRsa2048Sha1PubKeyRsa2048
	SigEcsda240Sha1PubKeyEcsda240
	SigRsa4096Sha256PubKeyRsa4096
	SigRsa2048Sha256PubKeyRsa2048
	SigEcsda240Sha256PubKeyEcsda240
)

func (t Type) String() string {
	switch t {
	case SigRsa4096Sha1PubKeyRsa4096:
		return "SigRsa4096Sha1_PubKeyRsa4096"
	case SigRsa2048Sha1PubKeyRsa2048:
		return "SigRsa2048Sha1_PubKeyRsa2048"
	case SigEcsda240Sha1PubKeyEcsda240:
		return "SigEcsda240Sha1_PubKeyEcsda240"
	case SigRsa4096Sha256PubKeyRsa4096:
		return "SigRsa4096Sha256_PubKeyRsa4096"
	case SigRsa2048Sha256PubKeyRsa2048:
		return "SigRsa2048Sha256_PubKeyRsa2048"
	case SigEcsda240Sha256PubKeyEcsda240:
		return "SigEcsda240Sha256_PubKeyEcsda240"
	default:
		return "Invalid"
	}
}

// certType mirrors the CERT_TYPE() macro: a signature algorithm and a
// public-key algorithm of the same key family form a valid pair, and the
// SHA1 and SHA256 signature variants of that family yield distinct types.
// Any other combination is Invalid.
func certType(sig SignatureAlgorithm, pk PubKeyAlgorithm) Type {
	switch sig {
	case SigRsa4096Sha1, SigRsa4096Sha256:
		if pk == PubKeyRsa4096 {
			if sig == SigRsa4096Sha1 {
				return SigRsa4096Sha1PubKeyRsa4096
			}
			return SigRsa4096Sha256PubKeyRsa4096
		}
	case SigRsa2048Sha1, SigRsa2048Sha256:
		if pk == PubKeyRsa2048 {
			if sig == SigRsa2048Sha1 {
				return SigRsa2048Sha1PubKeyRsa2048
			}
			return SigRsa2048Sha256PubKeyRsa2048
		}
	case SigEcsda240Sha1, SigEcsda240Sha256:
		if pk == PubKeyEcsda240 {
			if sig == SigEcsda240Sha1 {
				return SigEcsda240Sha1PubKeyEcsda240
			}
			return SigEcsda240Sha256PubKeyEcsda240
		}
	}
	return Invalid
}

// Fixed field widths of the on-disk layout (§6).
const (
	sigTypeFieldSize    = 4
	issuerFieldSize     = 0x40
	pubKeyTypeFieldSize = 4
	nameFieldSize       = 0x40
	certIDFieldSize     = 4

	sigBlockRsa4096  = 0x200
	sigBlockRsa2048  = 0x23C
	sigBlockEcsda240 = 0x3C

	pubKeyBlockRsa4096  = 0x238
	pubKeyBlockRsa2048  = 0x138
	pubKeyBlockEcsda240 = 0x7C
)

func sigBlockSize(sig SignatureAlgorithm) (int, bool) {
	switch sig {
	case SigRsa4096Sha1, SigRsa4096Sha256:
		return sigBlockRsa4096, true
	case SigRsa2048Sha1, SigRsa2048Sha256:
		return sigBlockRsa2048, true
	case SigEcsda240Sha1, SigEcsda240Sha256:
		return sigBlockEcsda240, true
	default:
		return 0, false
	}
}

func pubKeyBlockSize(pk PubKeyAlgorithm) (int, bool) {
	switch pk {
	case PubKeyRsa4096:
		return pubKeyBlockRsa4096, true
	case PubKeyRsa2048:
		return pubKeyBlockRsa2048, true
	case PubKeyEcsda240:
		return pubKeyBlockEcsda240, true
	default:
		return 0, false
	}
}

// CERT_MIN_SIZE / CERT_MAX_SIZE (§6): smallest and largest valid on-disk
// certificate sizes across all six type combinations.
var (
	MinSize = minCertSize()
	MaxSize = maxCertSize()
)

func certSize(sig SignatureAlgorithm, pk PubKeyAlgorithm) int {
	sb, _ := sigBlockSize(sig)
	pb, _ := pubKeyBlockSize(pk)
	return sigTypeFieldSize + sb + issuerFieldSize + pubKeyTypeFieldSize + nameFieldSize + certIDFieldSize + pb
}

func minCertSize() int {
	return certSize(SigEcsda240Sha1, PubKeyEcsda240)
}

func maxCertSize() int {
	return certSize(SigRsa4096Sha1, PubKeyRsa4096)
}

// Certificate is an immutable, parsed certificate.
type Certificate struct {
	Type Type
	Size int
	Data []byte
}

func (c *Certificate) String() string {
	return fmt.Sprintf("Certificate{type=%s size=%d}", c.Type, c.Size)
}

// CertChain is an ordered, root-to-leaf sequence of certificates.
type CertChain struct {
	Certs []*Certificate
}
