package rubymarshal

import (
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// symbolTag is a private-use CBOR tag applied to the text-string encoding
// of a Sym value, placed adjacent to the well-known self-describe tag
// (55799) so it reads clearly as "related to, but distinct from" it.
const symbolTag = 55800

// bignumPosTag and bignumNegTag are the standard CBOR bignum tags
// (RFC 8949 §3.4.3).
const (
	bignumPosTag = 2
	bignumNegTag = 3
)

var encMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	m, err := opts.EncMode()
	if err != nil {
		panic("rubymarshal: invalid cbor encode options: " + err.Error())
	}
	encMode = m
}

// ToCBOR re-serializes v as canonical CBOR. See SPEC_FULL.md §4.5 for the
// per-Kind mapping. This never errors for a well-formed Value; any error
// returned originates from the underlying cbor.Marshal call.
func ToCBOR(v Value) ([]byte, error) {
	return encMode.Marshal(toCBORAny(v))
}

func toCBORAny(v Value) any {
	switch v.Kind {
	case NilKind:
		return nil
	case BoolKind:
		return v.Bool
	case IntKind:
		return v.Int
	case BigIntKind:
		return bignumAny{v.BigInt}
	case StrKind:
		return v.Str
	case SymKind:
		return cbor.Tag{Number: symbolTag, Content: v.Str}
	case SeqKind:
		out := make([]any, len(v.Seq))
		for i, e := range v.Seq {
			out[i] = toCBORAny(e)
		}
		return out
	case MapKind:
		// Encoded as an array of pairs, not a CBOR map: Map values are
		// not deduplicated and may contain keys a native CBOR map
		// cannot represent losslessly (duplicates, non-comparable
		// nested structures).
		out := make([][2]any, len(v.Map))
		for i, p := range v.Map {
			out[i] = [2]any{toCBORAny(p.Key), toCBORAny(p.Value)}
		}
		return out
	case WrapperKind:
		children := make([]any, len(v.WrapperChildren))
		for i, c := range v.WrapperChildren {
			children[i] = toCBORAny(c)
		}
		var tag any
		if !v.WrapperTag.IsNil() {
			tag = toCBORAny(v.WrapperTag)
		}
		return []any{v.WrapperVariant.String(), tag, children}
	default:
		return nil
	}
}

// bignumAny implements cbor.Marshaler so that BigInt values round-trip
// through the standard positive/negative bignum tags rather than as a
// bare byte string.
type bignumAny struct {
	v *big.Int
}

func (b bignumAny) MarshalCBOR() ([]byte, error) {
	neg := b.v.Sign() < 0
	mag := new(big.Int).Abs(b.v)
	tagNum := uint64(bignumPosTag)
	if neg {
		tagNum = bignumNegTag
	}
	return encMode.Marshal(cbor.Tag{Number: tagNum, Content: mag.Bytes()})
}
