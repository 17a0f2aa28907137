package cert

import (
	"errors"
	"fmt"
	"strings"

	"nxdt/internal/container"
)

// rootPrefix is the literal prefix every chain-building issuer string must
// carry.
const rootPrefix = "Root-"

// maxIssuerTail bounds the issuer tail the same way the platform's
// destructive strtok-based tokeniser does: a fixed 0x40-byte working buffer
// minus the NUL terminator (§9, resolved open question).
const maxIssuerTail = 0x40 - 1

// Store looks up and assembles certificates from a save container.
type Store struct {
	save container.SaveContainer
}

// NewStore builds a CertStore over an already-open save container. The
// container is closed on every exit path of every lookup issued through
// the store's own Close, not per-lookup: the platform opens the save once
// and keeps it open for the process lifetime, a detail this port keeps by
// taking ownership of save here instead of reopening it per call.
func NewStore(save container.SaveContainer) *Store {
	return &Store{save: save}
}

// Close releases the underlying save container.
func (s *Store) Close() error {
	return s.save.Close()
}

// Lookup retrieves and parses the certificate named name (§4.1.1).
func (s *Store) Lookup(name string) (*Certificate, error) {
	if name == "" {
		return nil, ErrInvalidArgument
	}

	path := container.CertStoragePrefix + name

	size, err := s.save.Stat(path)
	if err != nil {
		if errors.Is(err, container.ErrEntryNotFound) {
			return nil, fmt.Errorf("cert: lookup %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("cert: lookup %q: %w", name, err)
	}
	if int(size) < MinSize || int(size) > MaxSize {
		return nil, fmt.Errorf("cert: lookup %q (size %d): %w", name, size, ErrSizeOutOfRange)
	}

	data, err := s.save.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("cert: lookup %q: %w", name, err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("cert: lookup %q: %w", name, ErrShortRead)
	}

	typ, err := ParseType(data)
	if err != nil || typ == Invalid {
		return nil, fmt.Errorf("cert: lookup %q: %w", name, ErrMalformed)
	}

	return &Certificate{Type: typ, Size: len(data), Data: data}, nil
}

// Chain retrieves the certificate chain named by a "Root-..." issuer
// string (§4.1.2). Tokens are split the way the platform's strtok-based
// tokeniser splits them: runs of '-' collapse, so "Root-a--b" yields two
// tokens, not three.
func (s *Store) Chain(issuer string) (*CertChain, error) {
	if !strings.HasPrefix(issuer, rootPrefix) {
		return nil, ErrBadIssuerPrefix
	}

	tail := issuer[len(rootPrefix):]
	if tail == "" {
		return nil, ErrEmptyIssuerTail
	}
	if len(tail) > maxIssuerTail {
		return nil, ErrIssuerTooLong
	}

	tokens := strings.FieldsFunc(tail, func(r rune) bool { return r == '-' })
	if len(tokens) == 0 {
		return nil, ErrEmptyIssuerTail
	}

	certs := make([]*Certificate, 0, len(tokens))
	for _, token := range tokens {
		c, err := s.Lookup(token)
		if err != nil {
			return nil, fmt.Errorf("cert: chain %q: %w", issuer, err)
		}
		certs = append(certs, c)
	}

	return &CertChain{Certs: certs}, nil
}
