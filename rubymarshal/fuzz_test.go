package rubymarshal

import (
	"encoding/base64"
	"testing"
)

// FuzzDecode seeds from the known-good vectors plus a handful of
// adversarial shapes and asserts only that Decode never panics and
// never returns a Value alongside a non-nil error.
func FuzzDecode(f *testing.F) {
	seeds := []string{
		"BAhpBg==",
		"BAg6C2F6ZXJ0eQ==",
		"BAhJIgthemVydHkGOgZFVA==",
		"BAh7BkkiB2F6BjoGRVRJIgdxcwY7AFQ=",
		"BAhbCToQc2FtZV9zeW1ib2w7ADoOZGlmZmVyZW50OwA=",
		"BAhsKwwAAAAAAAAAAAAAAAAQAA==",
		"BAhsLQwAAAAAAAAAAAAAAAAQAA==",
	}
	for _, s := range seeds {
		f.Add(mustB64ForFuzz(s))
	}
	f.Add([]byte{})
	f.Add([]byte{0x04, 0x08})
	f.Add([]byte{0x04, 0x08, 0xff})

	f.Fuzz(func(t *testing.T, b []byte) {
		v, err := Decode(b)
		if err != nil && !v.IsNil() && v.Kind != InvalidKind {
			t.Fatalf("Decode returned both a non-trivial value and an error: v=%s err=%v", v, err)
		}
	})
}

func mustB64ForFuzz(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
