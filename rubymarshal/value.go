// Package rubymarshal decodes the binary object-graph format (version 4.8)
// produced by a dynamic language's native serializer into a host-neutral
// Value tree.
//
// This package defines two "families" of functions:
//   - Decode() parses a complete byte slice into a Value.
//   - ToCBOR() re-serializes a Value as canonical CBOR for host-neutral
//     export.
//
// User-defined objects, user-marshal objects, extended modules, and object
// links are never instantiated into host types; they surface as an opaque
// Wrapper that callers pattern-match on.
package rubymarshal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies which variant of Value is populated.
type Kind byte

const (
	// InvalidKind is the zero value and never appears in a decoded tree.
	InvalidKind Kind = iota
	NilKind
	BoolKind
	IntKind
	BigIntKind
	StrKind
	SymKind
	SeqKind
	MapKind
	WrapperKind
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case NilKind:
		return "nil"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case BigIntKind:
		return "bigint"
	case StrKind:
		return "str"
	case SymKind:
		return "sym"
	case SeqKind:
		return "seq"
	case MapKind:
		return "map"
	case WrapperKind:
		return "wrapper"
	default:
		return "<invalid>"
	}
}

// WrapperVariant distinguishes the six opaque "complex object" shapes
// carried by Wrapper values.
type WrapperVariant byte

const (
	InvalidVariant WrapperVariant = iota
	Object                        // tag :ClassName, children = [attrSym0, attrVal0, ...]
	UserDef                       // tag :ClassName, children = [rawBytesAsText]
	UserMarshal                   // tag :ClassName, children = [inner]
	Link                          // tag = back-reference index (as Int), no children
	Extended                      // no tag, no children
)

// String implements fmt.Stringer.
func (v WrapperVariant) String() string {
	switch v {
	case Object:
		return "object"
	case UserDef:
		return "userdef"
	case UserMarshal:
		return "usermarshal"
	case Link:
		return "link"
	case Extended:
		return "extended"
	default:
		return "<invalid>"
	}
}

// Pair is one (key, value) entry of a Map. Pairs are not deduplicated;
// a Map preserves the source ordering and may contain repeated keys.
type Pair struct {
	Key   Value
	Value Value
}

// Value is the tagged sum produced by Decode. Exactly one of the
// type-specific fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	BigInt *big.Int
	Str    string // also holds Sym's name, without the leading colon
	Seq    []Value
	Map    []Pair

	WrapperVariant  WrapperVariant
	WrapperTag      Value // class-name Sym for Object/UserDef/UserMarshal; back-ref Int for Link; unset for Extended
	WrapperChildren []Value
}

// Nil is the singleton Nil value.
var Nil = Value{Kind: NilKind}

// Bool constructs a Bool value.
func Bool(b bool) Value { return Value{Kind: BoolKind, Bool: b} }

// Int constructs an Int value.
func Int(i int64) Value { return Value{Kind: IntKind, Int: i} }

// BigIntVal constructs a BigInt value.
func BigIntVal(b *big.Int) Value { return Value{Kind: BigIntKind, BigInt: b} }

// Str constructs a Str value.
func Str(s string) Value { return Value{Kind: StrKind, Str: s} }

// Sym constructs a Sym value from a bare name (no leading colon).
func Sym(name string) Value { return Value{Kind: SymKind, Str: name} }

// Seq constructs a Seq value.
func Seq(vs []Value) Value { return Value{Kind: SeqKind, Seq: vs} }

// Map constructs a Map value.
func Map(pairs []Pair) Value { return Value{Kind: MapKind, Map: pairs} }

// IsNil reports whether v is the Nil value.
func (v Value) IsNil() bool { return v.Kind == NilKind }

// Equal reports whether v and other are structurally equal. Sym and Str
// compare equal only to the same Kind; a Sym named "foo" is never equal
// to a Str "foo", matching the specification's requirement that
// distinguishability be preserved by the variant, not the surface prefix.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case NilKind:
		return true
	case BoolKind:
		return v.Bool == other.Bool
	case IntKind:
		return v.Int == other.Int
	case BigIntKind:
		return v.BigInt.Cmp(other.BigInt) == 0
	case StrKind, SymKind:
		return v.Str == other.Str
	case SeqKind:
		if len(v.Seq) != len(other.Seq) {
			return false
		}
		for i := range v.Seq {
			if !v.Seq[i].Equal(other.Seq[i]) {
				return false
			}
		}
		return true
	case MapKind:
		if len(v.Map) != len(other.Map) {
			return false
		}
		for i := range v.Map {
			if !v.Map[i].Key.Equal(other.Map[i].Key) || !v.Map[i].Value.Equal(other.Map[i].Value) {
				return false
			}
		}
		return true
	case WrapperKind:
		if v.WrapperVariant != other.WrapperVariant || len(v.WrapperChildren) != len(other.WrapperChildren) {
			return false
		}
		if !v.WrapperTag.Equal(other.WrapperTag) {
			return false
		}
		for i := range v.WrapperChildren {
			if !v.WrapperChildren[i].Equal(other.WrapperChildren[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a diagnostic, Go-syntax-like representation of v. It is
// intended for debugging and the CLI demonstrator's --format=go output,
// not as a stable machine-readable encoding.
func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.Kind {
	case NilKind:
		sb.WriteString("Nil")
	case BoolKind:
		fmt.Fprintf(sb, "Bool(%t)", v.Bool)
	case IntKind:
		fmt.Fprintf(sb, "Int(%d)", v.Int)
	case BigIntKind:
		fmt.Fprintf(sb, "BigInt(%s)", v.BigInt.String())
	case StrKind:
		fmt.Fprintf(sb, "Str(%s)", strconv.Quote(v.Str))
	case SymKind:
		sb.WriteString(":")
		sb.WriteString(v.Str)
	case SeqKind:
		sb.WriteString("Seq[")
		for i, e := range v.Seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.writeTo(sb)
		}
		sb.WriteString("]")
	case MapKind:
		sb.WriteString("Map{")
		for i, p := range v.Map {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.Key.writeTo(sb)
			sb.WriteString(" => ")
			p.Value.writeTo(sb)
		}
		sb.WriteString("}")
	case WrapperKind:
		fmt.Fprintf(sb, "Wrapper{kind=%s, tag=", v.WrapperVariant)
		v.WrapperTag.writeTo(sb)
		sb.WriteString(", children=[")
		for i, c := range v.WrapperChildren {
			if i > 0 {
				sb.WriteString(", ")
			}
			c.writeTo(sb)
		}
		sb.WriteString("]}")
	default:
		sb.WriteString("<invalid>")
	}
}
