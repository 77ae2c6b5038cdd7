// Package activesupport reimplements the key-derivation and message-
// signing primitives the source framework's support library provides:
// a memoized PBKDF2 key generator and an HMAC-SHA256 signed-message
// verifier/generator.
package activesupport

import (
	"crypto/sha1"
	"strconv"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// KeyGenerator derives keys via PBKDF2-HMAC-SHA1, matching the source
// framework's default key-derivation scheme. A KeyGenerator is safe for
// concurrent use: its cache tolerates concurrent readers and writers,
// and once a (salt, bitLength) entry is installed it never changes.
type KeyGenerator struct {
	secret       []byte
	iterations   int
	cacheEnabled bool

	mu    sync.Mutex
	cache map[string][]byte
}

// NewKeyGenerator constructs a KeyGenerator. iterations must be >= 1.
func NewKeyGenerator(secret string, iterations int, cacheEnabled bool) *KeyGenerator {
	kg := &KeyGenerator{
		secret:       []byte(secret),
		iterations:   iterations,
		cacheEnabled: cacheEnabled,
	}
	if cacheEnabled {
		kg.cache = make(map[string][]byte)
	}
	return kg
}

// Derive returns a key of bitLength/8 bytes derived from salt. bitLength
// must be a positive multiple of 8. When the generator was constructed
// with cacheEnabled, two calls with the same (salt, bitLength) return the
// identical backing slice; misses under concurrent contention may
// recompute, but an installed entry is never replaced.
func (kg *KeyGenerator) Derive(salt string, bitLength int) []byte {
	if !kg.cacheEnabled {
		return kg.generate(salt, bitLength)
	}

	key := cacheKey(salt, bitLength)

	kg.mu.Lock()
	if existing, ok := kg.cache[key]; ok {
		kg.mu.Unlock()
		return existing
	}
	kg.mu.Unlock()

	derived := kg.generate(salt, bitLength)

	kg.mu.Lock()
	defer kg.mu.Unlock()
	if existing, ok := kg.cache[key]; ok {
		// Another goroutine installed it first; the spec requires a
		// once-installed value never change, so keep the winner.
		return existing
	}
	kg.cache[key] = derived
	return derived
}

func (kg *KeyGenerator) generate(salt string, bitLength int) []byte {
	return pbkdf2.Key(kg.secret, []byte(salt), kg.iterations, bitLength/8, sha1.New)
}

func cacheKey(salt string, bitLength int) string {
	return salt + "|" + strconv.Itoa(bitLength)
}
