package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const signaturePrefix = "sha256="

// Signer computes HMAC-SHA256 signatures over canonical JSON.
// Canonical JSON has object keys sorted and no insignificant whitespace, so a
// receiver holding the same secret can recompute the signature from the body.
type Signer struct {
	key []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{key: []byte(secret)}
}

// Canonicalize re-encodes any JSON-marshalable value with sorted keys.
func Canonicalize(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	// encoding/json writes map keys in sorted order
	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical payload: %w", err)
	}
	return canonical, nil
}

// Sign returns "sha256=<hex>" for the exact body bytes.
func (s *Signer) Sign(body []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// SignPayload canonicalizes payload and signs the result. The returned body
// is what must be sent on the wire.
func (s *Signer) SignPayload(payload any) ([]byte, string, error) {
	body, err := Canonicalize(payload)
	if err != nil {
		return nil, "", err
	}
	return body, s.Sign(body), nil
}

func (s *Signer) Verify(body []byte, signature string) bool {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	return hmac.Equal([]byte(s.Sign(body)), []byte(signature))
}
