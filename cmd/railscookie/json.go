package main

import (
	"encoding/json"
	"fmt"

	"github.com/railscompat/railscompat.go/rubymarshal"
)

// printJSON prints v as indented JSON. Sym values are rendered as
// strings prefixed with ":" (the specification's stringification
// convenience); BigInt values are rendered as their decimal string form,
// since JSON numbers cannot carry arbitrary precision losslessly.
func printJSON(v rubymarshal.Value) error {
	out, err := json.MarshalIndent(toJSONAny(v), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func toJSONAny(v rubymarshal.Value) any {
	switch v.Kind {
	case rubymarshal.NilKind:
		return nil
	case rubymarshal.BoolKind:
		return v.Bool
	case rubymarshal.IntKind:
		return v.Int
	case rubymarshal.BigIntKind:
		return v.BigInt.String()
	case rubymarshal.StrKind:
		return v.Str
	case rubymarshal.SymKind:
		return ":" + v.Str
	case rubymarshal.SeqKind:
		out := make([]any, len(v.Seq))
		for i, e := range v.Seq {
			out[i] = toJSONAny(e)
		}
		return out
	case rubymarshal.MapKind:
		out := make([][2]any, len(v.Map))
		for i, p := range v.Map {
			out[i] = [2]any{toJSONAny(p.Key), toJSONAny(p.Value)}
		}
		return out
	case rubymarshal.WrapperKind:
		children := make([]any, len(v.WrapperChildren))
		for i, c := range v.WrapperChildren {
			children[i] = toJSONAny(c)
		}
		m := map[string]any{
			"kind":     v.WrapperVariant.String(),
			"children": children,
		}
		if !v.WrapperTag.IsNil() {
			m["tag"] = toJSONAny(v.WrapperTag)
		}
		return m
	default:
		return nil
	}
}
