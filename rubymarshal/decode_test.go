package rubymarshal

import (
	"encoding/base64"
	"math/big"
	"testing"
)

func mustB64(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("bad base64 fixture %q: %v", s, err)
	}
	return b
}

func TestDecodeVectors(t *testing.T) {
	cases := []struct {
		name string
		b64  string
		want Value
	}{
		{"int-1", "BAhpBg==", Int(1)},
		{"symbol-azerty", "BAg6C2F6ZXJ0eQ==", Sym("azerty")},
		{"ivar-discards-encoding", "BAhJIgthemVydHkGOgZFVA==", Str("azerty")},
		{
			"hash-az-qs",
			"BAh7BkkiB2F6BjoGRVRJIgdxcwY7AFQ=",
			Map([]Pair{{Key: Str("az"), Value: Str("qs")}}),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Decode(mustB64(t, c.b64))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !got.Equal(c.want) {
				t.Fatalf("Decode(%s) = %s, want %s", c.name, got, c.want)
			}
		})
	}
}

func TestDecodeSymbolIdentity(t *testing.T) {
	got, err := Decode(mustB64(t, "BAhbCToQc2FtZV9zeW1ib2w7ADoOZGlmZmVyZW50OwA="))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != SeqKind || len(got.Seq) != 4 {
		t.Fatalf("unexpected shape: %s", got)
	}
	want := []Value{Sym("same_symbol"), Sym("same_symbol"), Sym("different"), Sym("same_symbol")}
	for i, w := range want {
		if !got.Seq[i].Equal(w) {
			t.Fatalf("element %d = %s, want %s", i, got.Seq[i], w)
		}
	}
	if !got.Seq[0].Equal(got.Seq[1]) || !got.Seq[1].Equal(got.Seq[3]) {
		t.Fatalf("expected elements 0, 1, 3 to be the same symbol")
	}
	if got.Seq[0].Equal(got.Seq[2]) {
		t.Fatalf("elements 0 and 2 must not be equal")
	}
}

func TestDecodeBignum(t *testing.T) {
	twoTo100 := new(big.Int).Lsh(big.NewInt(1), 100)
	negTwoTo100 := new(big.Int).Neg(twoTo100)

	got, err := Decode(mustB64(t, "BAhsKwwAAAAAAAAAAAAAAAAQAA=="))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != BigIntKind || got.BigInt.Cmp(twoTo100) != 0 {
		t.Fatalf("Decode(+2^100) = %s, want BigInt(%s)", got, twoTo100)
	}

	got, err = Decode(mustB64(t, "BAhsLQwAAAAAAAAAAAAAAAAQAA=="))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != BigIntKind || got.BigInt.Cmp(negTwoTo100) != 0 {
		t.Fatalf("Decode(-2^100) = %s, want BigInt(%s)", got, negTwoTo100)
	}
}

func TestDecodeRejectsBadHeader(t *testing.T) {
	_, err := Decode([]byte{0x03, 0x08, tagNil})
	if err == nil {
		t.Fatal("expected UnsupportedVersionError")
	}
	if _, ok := err.(UnsupportedVersionError); !ok {
		t.Fatalf("got %T, want UnsupportedVersionError", err)
	}
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, err := Decode([]byte{0x04, 0x08, 0xff})
	if _, ok := err.(UnknownTagError); !ok {
		t.Fatalf("got %T, want UnknownTagError", err)
	}
}

func TestDecodeRejectsShortInput(t *testing.T) {
	_, err := Decode([]byte{0x04, 0x08, tagInt})
	if _, ok := err.(UnexpectedEOFError); !ok {
		t.Fatalf("got %T, want UnexpectedEOFError", err)
	}
}

func TestDecodeRejectsBadSymbolBackref(t *testing.T) {
	// header + symbol-link tag + packed-int 0 (first back-ref, but
	// table is empty)
	_, err := Decode([]byte{0x04, 0x08, tagSymbolLink, 0x00})
	if _, ok := err.(BadReferenceError); !ok {
		t.Fatalf("got %T, want BadReferenceError", err)
	}
}

func TestDecodeEmptyNameSymbol(t *testing.T) {
	// header + new-symbol tag + packed-int 0 (zero-length name)
	got, err := Decode([]byte{0x04, 0x08, tagSymbol, 0x00})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != SymKind || got.Str != "" {
		t.Fatalf("Decode(empty symbol) = %s, want Sym(\"\")", got)
	}
	if got.String() != ":" {
		t.Fatalf("String() = %q, want %q", got.String(), ":")
	}
}

func TestDecodeRejectsDepthBomb(t *testing.T) {
	// A deeply nested array header: MaxDepth+5 nested one-element arrays,
	// each "[" tag followed by packed-int 1 for length, with no terminal
	// element — this must fail with EOF or DepthExceeded before any
	// unbounded allocation, never panic or hang.
	b := []byte{0x04, 0x08}
	for i := 0; i < MaxDepth+5; i++ {
		b = append(b, tagArray, 0x06) // packed-int 1 == byte value 6 (1+5)
	}
	_, err := Decode(b)
	if err == nil {
		t.Fatal("expected an error for a pathologically deep/short input")
	}
	if _, ok := err.(DepthExceededError); !ok {
		if _, ok := err.(UnexpectedEOFError); !ok {
			t.Fatalf("got %T, want DepthExceededError or UnexpectedEOFError", err)
		}
	}
}
