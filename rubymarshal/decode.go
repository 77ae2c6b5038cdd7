package rubymarshal

import "unicode/utf8"

// Decode parses b as a complete format-4.8 byte stream and returns the
// single Value it encodes. b must be non-empty and no larger than
// MaxInput.
func Decode(b []byte) (Value, error) {
	if len(b) == 0 {
		return Value{}, UnexpectedEOFError{ctx: "header"}
	}
	if len(b) > MaxInput {
		return Value{}, OversizedFieldError{Field: "input", Got: int64(len(b)), Cap: MaxInput}
	}

	r := newReader(b)
	major, err := r.readByte("header")
	if err != nil {
		return Value{}, err
	}
	minor, err := r.readByte("header")
	if err != nil {
		return Value{}, err
	}
	if major != formatMajor || minor != formatMinor {
		return Value{}, UnsupportedVersionError{Major: major, Minor: minor}
	}

	d := &decoder{r: r}
	v, err := d.readValue("root")
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// decoder carries the per-call symbol back-reference table and the
// current recursion depth. A fresh decoder is constructed for every
// Decode call; instances are never reused or shared.
type decoder struct {
	r       *reader
	symbols []Value
	depth   int
}

func (d *decoder) readValue(ctx string) (Value, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > MaxDepth {
		return Value{}, DepthExceededError{}
	}

	tag, err := d.r.readByte(ctx)
	if err != nil {
		return Value{}, err
	}

	switch tag {
	case tagNil:
		return Nil, nil
	case tagTrue:
		return Bool(true), nil
	case tagFalse:
		return Bool(false), nil
	case tagInt:
		n, err := readPackedInt(d.r, ctx)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case tagBignum:
		return readBignum(d.r, ctx)
	case tagString:
		return d.readRawString(ctx)
	case tagSymbol:
		return d.readNewSymbol(ctx)
	case tagSymbolLink:
		return d.readSymbolLink(ctx)
	case tagInstanceVar:
		return d.readInstanceVar(ctx)
	case tagArray:
		return d.readArray(ctx)
	case tagHash:
		return d.readHash(ctx)
	case tagObjectLink:
		return d.readObjectLink(ctx)
	case tagObject:
		return d.readObject(ctx)
	case tagUserDef:
		return d.readUserDef(ctx)
	case tagUserMarshal:
		return d.readUserMarshal(ctx)
	case tagExtended:
		return Value{Kind: WrapperKind, WrapperVariant: Extended, WrapperTag: Nil}, nil
	default:
		return Value{}, UnknownTagError{Tag: tag, ctx: ctx}
	}
}

func (d *decoder) readLengthPrefixedBytes(field string, cap int64, ctx string) ([]byte, error) {
	n, err := readPackedInt(d.r, ctx)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > cap {
		return nil, OversizedFieldError{Field: field, Got: n, Cap: cap, ctx: ctx}
	}
	return d.r.readN(int(n), ctx)
}

func (d *decoder) readRawString(ctx string) (Value, error) {
	raw, err := d.readLengthPrefixedBytes("string", MaxInput, ctx)
	if err != nil {
		return Value{}, err
	}
	if !utf8.Valid(raw) {
		return Value{}, EncodingError{Reason: "invalid UTF-8 in string", ctx: ctx}
	}
	return Str(string(raw)), nil
}

func (d *decoder) readNewSymbol(ctx string) (Value, error) {
	raw, err := d.readLengthPrefixedBytes("symbol", MaxSymbolLen, ctx)
	if err != nil {
		return Value{}, err
	}
	if !utf8.Valid(raw) {
		return Value{}, EncodingError{Reason: "invalid UTF-8 in symbol", ctx: ctx}
	}
	sym := Sym(string(raw))
	d.symbols = append(d.symbols, sym)
	return sym, nil
}

func (d *decoder) readSymbolLink(ctx string) (Value, error) {
	idx, err := readPackedInt(d.r, ctx)
	if err != nil {
		return Value{}, err
	}
	if idx < 0 || int(idx) >= len(d.symbols) {
		return Value{}, BadReferenceError{Index: int(idx), Have: len(d.symbols), ctx: ctx}
	}
	return d.symbols[idx], nil
}

// readSymbol reads either a new symbol (':') or a back-reference (';'),
// the two tags legal wherever a class-name or instance-variable key is
// expected.
func (d *decoder) readSymbol(ctx string) (Value, error) {
	tag, err := d.r.readByte(ctx)
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case tagSymbol:
		return d.readNewSymbol(ctx)
	case tagSymbolLink:
		return d.readSymbolLink(ctx)
	default:
		return Value{}, UnknownTagError{Tag: tag, ctx: ctx}
	}
}

func (d *decoder) readInstanceVar(ctx string) (Value, error) {
	inner, err := d.readValue(addCtx(ctx, "ivar-value"))
	if err != nil {
		return Value{}, err
	}
	n, err := readPackedInt(d.r, ctx)
	if err != nil {
		return Value{}, err
	}
	if n < 0 || n > MaxMapLen {
		return Value{}, OversizedFieldError{Field: "ivar count", Got: n, Cap: MaxMapLen, ctx: ctx}
	}
	// Attachments (commonly :E => true/false encoding markers) are
	// fully decoded, to keep the symbol table and cursor consistent
	// with a stream that may reference them later, then discarded.
	for i := int64(0); i < n; i++ {
		if _, err := d.readSymbol(addCtx(ctx, "ivar-key")); err != nil {
			return Value{}, err
		}
		if _, err := d.readValue(addCtx(ctx, "ivar-value")); err != nil {
			return Value{}, err
		}
	}
	return inner, nil
}

func (d *decoder) readArray(ctx string) (Value, error) {
	n, err := readPackedInt(d.r, ctx)
	if err != nil {
		return Value{}, err
	}
	if n < 0 || n > MaxSeqLen {
		return Value{}, OversizedFieldError{Field: "array length", Got: n, Cap: MaxSeqLen, ctx: ctx}
	}
	vs := make([]Value, 0, n)
	for i := int64(0); i < n; i++ {
		v, err := d.readValue(addCtx(ctx, "array element"))
		if err != nil {
			return Value{}, err
		}
		vs = append(vs, v)
	}
	return Seq(vs), nil
}

func (d *decoder) readHash(ctx string) (Value, error) {
	n, err := readPackedInt(d.r, ctx)
	if err != nil {
		return Value{}, err
	}
	if n < 0 || n > MaxMapLen {
		return Value{}, OversizedFieldError{Field: "hash length", Got: n, Cap: MaxMapLen, ctx: ctx}
	}
	pairs := make([]Pair, 0, n)
	for i := int64(0); i < n; i++ {
		k, err := d.readValue(addCtx(ctx, "hash key"))
		if err != nil {
			return Value{}, err
		}
		v, err := d.readValue(addCtx(ctx, "hash value"))
		if err != nil {
			return Value{}, err
		}
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return Map(pairs), nil
}

func (d *decoder) readObjectLink(ctx string) (Value, error) {
	idx, err := readPackedInt(d.r, ctx)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: WrapperKind, WrapperVariant: Link, WrapperTag: Int(idx)}, nil
}

func (d *decoder) readObject(ctx string) (Value, error) {
	tag, err := d.readSymbol(addCtx(ctx, "object class"))
	if err != nil {
		return Value{}, err
	}
	n, err := readPackedInt(d.r, ctx)
	if err != nil {
		return Value{}, err
	}
	if n < 0 || n > MaxMapLen {
		return Value{}, OversizedFieldError{Field: "object attr count", Got: n, Cap: MaxMapLen, ctx: ctx}
	}
	children := make([]Value, 0, n*2)
	for i := int64(0); i < n; i++ {
		k, err := d.readSymbol(addCtx(ctx, "object attr key"))
		if err != nil {
			return Value{}, err
		}
		v, err := d.readValue(addCtx(ctx, "object attr value"))
		if err != nil {
			return Value{}, err
		}
		children = append(children, k, v)
	}
	return Value{Kind: WrapperKind, WrapperVariant: Object, WrapperTag: tag, WrapperChildren: children}, nil
}

func (d *decoder) readUserDef(ctx string) (Value, error) {
	tag, err := d.readSymbol(addCtx(ctx, "userdef class"))
	if err != nil {
		return Value{}, err
	}
	raw, err := d.readLengthPrefixedBytes("userdef bytes", MaxInput, ctx)
	if err != nil {
		return Value{}, err
	}
	// Raw payload is exposed as text even though it is not guaranteed
	// UTF-8 by the source format; callers needing the exact bytes back
	// should treat this as a best-effort convenience, matching the
	// component's "expose as UTF-8 text child" contract.
	return Value{Kind: WrapperKind, WrapperVariant: UserDef, WrapperTag: tag, WrapperChildren: []Value{Str(string(raw))}}, nil
}

func (d *decoder) readUserMarshal(ctx string) (Value, error) {
	tag, err := d.readSymbol(addCtx(ctx, "usermarshal class"))
	if err != nil {
		return Value{}, err
	}
	inner, err := d.readValue(addCtx(ctx, "usermarshal inner"))
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: WrapperKind, WrapperVariant: UserMarshal, WrapperTag: tag, WrapperChildren: []Value{inner}}, nil
}
