package rubymarshal

// MaxInput is the largest byte slice Decode will accept.
const MaxInput = 100 * 1024 * 1024 // 100 MiB

// MaxDepth is the deepest recursion Decode will follow before failing
// with DepthExceededError. It bounds both adversarial input and
// accidental infinite structures.
const MaxDepth = 1000

// MaxSeqLen and MaxMapLen bound the element/pair count of a single
// Seq or Map, derived from MaxInput so that a length prefix alone cannot
// force an allocation larger than the input could possibly justify.
const MaxSeqLen = MaxInput / 100
const MaxMapLen = MaxInput / 100

// MaxSymbolLen bounds a single symbol's name length.
const MaxSymbolLen = MaxInput / 10

// MaxBignumHalfwords bounds the half-word count of a single bignum.
const MaxBignumHalfwords = MaxInput / 2

// formatMajor, formatMinor are the only accepted header bytes.
const (
	formatMajor byte = 0x04
	formatMinor byte = 0x08
)

// Tag bytes recognized by the dispatcher.
const (
	tagNil         = '0'
	tagTrue        = 'T'
	tagFalse       = 'F'
	tagInt         = 'i'
	tagBignum      = 'l'
	tagString      = '"'
	tagSymbol      = ':'
	tagSymbolLink  = ';'
	tagInstanceVar = 'I'
	tagArray       = '['
	tagHash        = '{'
	tagObjectLink  = '@'
	tagObject      = 'o'
	tagUserDef     = 'u'
	tagUserMarshal = 'U'
	tagExtended    = 'e'
)

const (
	bignumPositive = '+'
	bignumNegative = '-'
)
