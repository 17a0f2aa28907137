package cert

// Serialize concatenates a chain's certificate data, in order, into a
// freshly allocated contiguous buffer (§4.2). It is side-effect free with
// respect to chain.
func Serialize(chain *CertChain) []byte {
	total := 0
	for _, c := range chain.Certs {
		total += c.Size
	}

	buf := make([]byte, 0, total)
	for _, c := range chain.Certs {
		buf = append(buf, c.Data...)
	}
	return buf
}

// GenerateRawChain retrieves the chain named by issuer and serializes it in
// one call, mirroring certGenerateRawCertificateChainBySignatureIssuer.
func (s *Store) GenerateRawChain(issuer string) ([]byte, error) {
	chain, err := s.Chain(issuer)
	if err != nil {
		return nil, err
	}
	return Serialize(chain), nil
}
