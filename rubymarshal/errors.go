package rubymarshal

import "strconv"

// Error is the interface satisfied by all errors originating from this
// package.
type Error interface {
	error

	// Resumable reports whether the error leaves open the possibility
	// that a different call against the same decoder state could
	// succeed, or whether the byte stream itself is unrecoverably
	// malformed.
	Resumable() bool
}

// contextError lets an error be enhanced with a description of where in
// the value tree it occurred, without losing its concrete type.
type contextError interface {
	Error
	withContext(ctx string) error
}

// WrapError attaches context (e.g. "map value 3") to err, preserving its
// concrete type so callers can still use errors.As against it.
func WrapError(err error, ctx string) error {
	if e, ok := err.(contextError); ok {
		return e.withContext(ctx)
	}
	return err
}

func addCtx(ctx, add string) string {
	if ctx == "" {
		return add
	}
	return add + "/" + ctx
}

// UnsupportedVersionError is returned when the two-byte format header does
// not match major=4, minor=8.
type UnsupportedVersionError struct {
	Major, Minor byte
}

func (e UnsupportedVersionError) Error() string {
	return "rubymarshal: unsupported format version " + strconv.Itoa(int(e.Major)) + "." + strconv.Itoa(int(e.Minor))
}
func (e UnsupportedVersionError) Resumable() bool { return false }

// UnexpectedEOFError is returned when the buffer is exhausted mid-decode.
type UnexpectedEOFError struct {
	ctx string
}

func (e UnexpectedEOFError) Error() string {
	s := "rubymarshal: unexpected end of input"
	if e.ctx != "" {
		s += " at " + e.ctx
	}
	return s
}
func (e UnexpectedEOFError) Resumable() bool              { return false }
func (e UnexpectedEOFError) withContext(ctx string) error { e.ctx = addCtx(e.ctx, ctx); return e }

// UnknownTagError is returned when a tag byte does not match any
// recognized dispatch case.
type UnknownTagError struct {
	Tag byte
	ctx string
}

func (e UnknownTagError) Error() string {
	s := "rubymarshal: unknown tag byte " + strconv.Itoa(int(e.Tag)) + " (" + strconv.QuoteRune(rune(e.Tag)) + ")"
	if e.ctx != "" {
		s += " at " + e.ctx
	}
	return s
}
func (e UnknownTagError) Resumable() bool              { return false }
func (e UnknownTagError) withContext(ctx string) error { e.ctx = addCtx(e.ctx, ctx); return e }

// OversizedFieldError is returned when a length prefix exceeds the
// configured per-field cap.
type OversizedFieldError struct {
	Field string
	Got   int64
	Cap   int64
	ctx   string
}

func (e OversizedFieldError) Error() string {
	s := "rubymarshal: " + e.Field + " length " + strconv.FormatInt(e.Got, 10) + " exceeds cap " + strconv.FormatInt(e.Cap, 10)
	if e.ctx != "" {
		s += " at " + e.ctx
	}
	return s
}
func (e OversizedFieldError) Resumable() bool              { return false }
func (e OversizedFieldError) withContext(ctx string) error { e.ctx = addCtx(e.ctx, ctx); return e }

// DepthExceededError is returned when recursion depth exceeds MaxDepth.
type DepthExceededError struct{}

func (e DepthExceededError) Error() string   { return "rubymarshal: recursion depth exceeded" }
func (e DepthExceededError) Resumable() bool { return false }

// BadReferenceError is returned when a symbol back-reference index is out
// of range of the symbol table observed so far.
type BadReferenceError struct {
	Index int
	Have  int
	ctx   string
}

func (e BadReferenceError) Error() string {
	s := "rubymarshal: symbol reference " + strconv.Itoa(e.Index) + " out of range (have " + strconv.Itoa(e.Have) + ")"
	if e.ctx != "" {
		s += " at " + e.ctx
	}
	return s
}
func (e BadReferenceError) Resumable() bool              { return true }
func (e BadReferenceError) withContext(ctx string) error { e.ctx = addCtx(e.ctx, ctx); return e }

// EncodingError is returned for invalid UTF-8 in a string or symbol, or
// an unrecognized bignum sign byte.
type EncodingError struct {
	Reason string
	ctx    string
}

func (e EncodingError) Error() string {
	s := "rubymarshal: encoding error: " + e.Reason
	if e.ctx != "" {
		s += " at " + e.ctx
	}
	return s
}
func (e EncodingError) Resumable() bool              { return false }
func (e EncodingError) withContext(ctx string) error { e.ctx = addCtx(e.ctx, ctx); return e }

// TypeError is returned when a decoded root value does not match the
// shape a caller required (e.g. a session payload that decoded to
// something other than a Map).
type TypeError struct {
	Wanted Kind
	Got    Kind
	ctx    string
}

func (e TypeError) Error() string {
	s := "rubymarshal: wanted " + e.Wanted.String() + ", got " + e.Got.String()
	if e.ctx != "" {
		s += " at " + e.ctx
	}
	return s
}
func (e TypeError) Resumable() bool              { return true }
func (e TypeError) withContext(ctx string) error { e.ctx = addCtx(e.ctx, ctx); return e }
