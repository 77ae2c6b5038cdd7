package activesupport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/railscompat/railscompat.go/rubymarshal"
)

// MessageVerifier signs and verifies "<base64-json>--<hex-hmac>" tokens,
// matching the source framework's signed-message contract. Verification
// never returns an error on signature mismatch or purpose mismatch — it
// returns rubymarshal.Nil — because an error vs. non-error distinction on
// a MAC check is itself a timing/presence side channel.
type MessageVerifier struct {
	secret []byte
}

// NewMessageVerifier constructs a MessageVerifier over secret.
func NewMessageVerifier(secret []byte) *MessageVerifier {
	return &MessageVerifier{secret: secret}
}

type railsEnvelope struct {
	Rails struct {
		Message string      `json:"message"`
		Exp     interface{} `json:"exp"`
		Pur     string      `json:"pur"`
	} `json:"_rails"`
}

// Verify checks token's HMAC-SHA256 tag in constant time and, on match,
// decodes its enclosed message and checks it was generated for purpose.
// On any failure — malformed shape, tag mismatch, or purpose mismatch —
// it returns rubymarshal.Nil with no distinguishing detail.
func (mv *MessageVerifier) Verify(token string, purpose string) rubymarshal.Value {
	data, tagHex, ok := splitOnce(token, "--")
	if !ok || data == "" || tagHex == "" {
		return rubymarshal.Nil
	}

	want := mv.sign(data)
	got, err := hex.DecodeString(tagHex)
	if err != nil || !hmac.Equal(got, want) {
		return rubymarshal.Nil
	}

	envJSON, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return rubymarshal.Nil
	}
	var env railsEnvelope
	if err := json.Unmarshal(envJSON, &env); err != nil {
		return rubymarshal.Nil
	}
	if env.Rails.Pur != purpose {
		return rubymarshal.Nil
	}

	msg, err := base64.StdEncoding.DecodeString(env.Rails.Message)
	if err != nil {
		return rubymarshal.Nil
	}
	return rubymarshal.Str(string(msg))
}

// Generate produces a signed token wrapping message for purpose, the
// inverse of Verify.
func (mv *MessageVerifier) Generate(message string, purpose string) (string, error) {
	var env railsEnvelope
	env.Rails.Message = base64.StdEncoding.EncodeToString([]byte(message))
	env.Rails.Exp = nil
	env.Rails.Pur = purpose

	envJSON, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	data := base64.StdEncoding.EncodeToString(envJSON)
	tag := mv.sign(data)
	return data + "--" + hex.EncodeToString(tag), nil
}

func (mv *MessageVerifier) sign(data string) []byte {
	mac := hmac.New(sha256.New, mv.secret)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

// splitOnce splits s on the first occurrence of sep, requiring exactly
// one occurrence (the data half must not itself contain sep, matching
// the base64-standard data segment's alphabet, which excludes '-').
func splitOnce(s, sep string) (first, second string, ok bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return "", "", false
	}
	if strings.Contains(s[i+len(sep):], sep) {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}
