// Package session decrypts and decodes the AES-256-GCM session cookie
// envelope produced by the source framework, chaining the key generator,
// the AEAD decrypt step, and the object-graph decoder.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/railscompat/railscompat.go/activesupport"
	"github.com/railscompat/railscompat.go/rubymarshal"
)

// cookieSalt and cookieKeyBits pin the exact salt string and key length
// the source framework uses to derive its per-request session key,
// carried over from the Java reference implementation's constants.
const (
	cookieSalt    = "authenticated encrypted cookie"
	cookieKeyBits = 256
)

const gcmTagSize = 16
const gcmNonceSize = 12

// Error is the interface satisfied by errors from this package.
type Error interface {
	error
	Resumable() bool
}

// InvalidEnvelopeError is returned for malformed base64, wrong segment
// count, or bad JSON shape.
type InvalidEnvelopeError struct{ Reason string }

func (e InvalidEnvelopeError) Error() string   { return "session: invalid envelope: " + e.Reason }
func (e InvalidEnvelopeError) Resumable() bool { return false }

// AuthFailureError is returned when AEAD authentication fails.
type AuthFailureError struct{}

func (e AuthFailureError) Error() string   { return "session: AEAD authentication failed" }
func (e AuthFailureError) Resumable() bool { return false }

// UnexpectedPayloadError is returned when the decoder succeeds but the
// decoded root value is not the mapping a session payload must be. It is
// not resumable: the envelope decrypted and decoded cleanly, so retrying
// against the same cookie can never produce a different shape.
type UnexpectedPayloadError struct{ Got rubymarshal.Kind }

func (e UnexpectedPayloadError) Error() string {
	return "session: expected decoded payload to be a map, got " + e.Got.String()
}
func (e UnexpectedPayloadError) Resumable() bool { return false }

// Envelope decrypts a single session cookie value. It is constructed
// fresh per request and holds no state beyond the raw cookie string and
// a shared KeyGenerator reference.
type Envelope struct {
	cookieValue string
	keyGen      *activesupport.KeyGenerator
}

// NewEnvelope constructs an Envelope for cookieValue, deriving its AEAD
// key from secretKeyBase via a fresh, cache-enabled KeyGenerator using
// 1000 PBKDF2 iterations (the source framework's default).
func NewEnvelope(cookieValue, secretKeyBase string) *Envelope {
	return NewEnvelopeWithKeyGenerator(cookieValue, activesupport.NewKeyGenerator(secretKeyBase, 1000, true))
}

// NewEnvelopeWithKeyGenerator constructs an Envelope reusing an existing,
// shared KeyGenerator — the idiom a long-lived server process should use
// so that repeated decryptions amortize PBKDF2's cost via the
// generator's cache.
func NewEnvelopeWithKeyGenerator(cookieValue string, keyGen *activesupport.KeyGenerator) *Envelope {
	return &Envelope{cookieValue: cookieValue, keyGen: keyGen}
}

type railsEnvelopeJSON struct {
	Rails struct {
		Message string      `json:"message"`
		Exp     interface{} `json:"exp"`
		Pur     string      `json:"pur"`
	} `json:"_rails"`
}

// Decrypt parses, authenticates, and decodes the cookie, returning the
// decoded session mapping.
func (e *Envelope) Decrypt() (rubymarshal.Value, error) {
	unescaped, err := url.QueryUnescape(e.cookieValue)
	if err != nil {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "percent-decoding failed: " + err.Error()}
	}

	parts := strings.Split(unescaped, "--")
	if len(parts) != 3 {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "expected 3 segments separated by --"}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "bad ciphertext base64"}
	}
	iv, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "bad iv base64"}
	}
	if len(iv) != gcmNonceSize {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "iv must be 12 bytes"}
	}
	authTag, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "bad auth tag base64"}
	}
	if len(authTag) != gcmTagSize {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "auth tag must be 16 bytes"}
	}

	key := e.keyGen.Derive(cookieSalt, cookieKeyBits)
	plaintext, err := aesGCMOpen(key, iv, ciphertext, authTag)
	if err != nil {
		return rubymarshal.Value{}, AuthFailureError{}
	}

	var env railsEnvelopeJSON
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "plaintext is not the expected _rails JSON shape"}
	}

	messageBytes, err := base64.StdEncoding.DecodeString(env.Rails.Message)
	if err != nil {
		return rubymarshal.Value{}, InvalidEnvelopeError{Reason: "bad _rails.message base64"}
	}

	decoded, err := rubymarshal.Decode(messageBytes)
	if err != nil {
		return rubymarshal.Value{}, err
	}
	if decoded.Kind != rubymarshal.MapKind {
		return rubymarshal.Value{}, UnexpectedPayloadError{Got: decoded.Kind}
	}
	return decoded, nil
}

// aesGCMOpen authenticates and decrypts ciphertext with the 16-byte GCM
// tag supplied separately (the cookie wire format carries the tag as its
// own base64 segment rather than appended to the ciphertext).
func aesGCMOpen(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithTagSize(block, gcmTagSize)
	if err != nil {
		return nil, err
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	return gcm.Open(nil, nonce, sealed, nil)
}
