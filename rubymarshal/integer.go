package rubymarshal

import "math/big"

// readPackedInt decodes one value in the eleven-scheme packed integer
// encoding used pervasively as a length or value prefix. The schemes,
// keyed on the signed lead byte c:
//
//	c == 0            -> 0
//	c in [5, 127]     -> c - 5           (immediate positive 1..122)
//	c in [-128, -5]   -> c + 5           (immediate negative -123..-1)
//	c in [1, 4]       -> c little-endian zero-extended bytes follow
//	c in [-4, -1]     -> |c| little-endian sign-extended bytes follow
func readPackedInt(r *reader, ctx string) (int64, error) {
	b, err := r.readByte(ctx)
	if err != nil {
		return 0, err
	}
	c := int8(b)

	switch {
	case c == 0:
		return 0, nil
	case c >= 5 && c <= 127:
		return int64(c) - 5, nil
	case c <= -5:
		return int64(c) + 5, nil
	case c >= 1 && c <= 4:
		n := int(c)
		bytes, err := r.readN(n, ctx)
		if err != nil {
			return 0, err
		}
		var v int64
		for i := 0; i < n; i++ {
			v |= int64(bytes[i]) << (8 * uint(i))
		}
		return v, nil
	default: // c in [-4, -1]
		n := int(-c)
		bytes, err := r.readN(n, ctx)
		if err != nil {
			return 0, err
		}
		v := int64(-1)
		for i := 0; i < n; i++ {
			v &^= int64(0xff) << (8 * uint(i))
			v |= int64(bytes[i]) << (8 * uint(i))
		}
		return v, nil
	}
}

// readBignum decodes the sign byte, packed half-word count, and
// little-endian magnitude following a bignum tag, returning an Int
// value when the magnitude fits in signed 64 bits and a BigInt value
// otherwise.
func readBignum(r *reader, ctx string) (Value, error) {
	signByte, err := r.readByte(ctx)
	if err != nil {
		return Value{}, err
	}
	var negative bool
	switch signByte {
	case bignumPositive:
		negative = false
	case bignumNegative:
		negative = true
	default:
		return Value{}, EncodingError{Reason: "invalid bignum sign byte", ctx: ctx}
	}

	halfwords, err := readPackedInt(r, ctx)
	if err != nil {
		return Value{}, err
	}
	if halfwords < 0 || halfwords > MaxBignumHalfwords {
		return Value{}, OversizedFieldError{Field: "bignum halfwords", Got: halfwords, Cap: MaxBignumHalfwords, ctx: ctx}
	}

	nbytes := int(halfwords) * 2
	raw, err := r.readN(nbytes, ctx)
	if err != nil {
		return Value{}, err
	}

	// raw is little-endian; big.Int.SetBytes wants big-endian, so reverse.
	be := make([]byte, nbytes)
	for i, b := range raw {
		be[nbytes-1-i] = b
	}

	mag := new(big.Int).SetBytes(be)
	if negative {
		mag.Neg(mag)
	}

	if mag.IsInt64() {
		return Int(mag.Int64()), nil
	}
	return BigIntVal(mag), nil
}
