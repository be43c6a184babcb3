package oscval

// Value is a tagged variant over the OSC type alphabet. The zero Value is
// absent (Ok reports false); absence is distinct from any payload, including
// the unit types (True/False/Nil/Infinitum), which are present-but-empty.
type Value struct {
	ok    bool
	code  Code
	i32   int32
	i64   int64
	f32   float32
	f64   float64
	str   string
	blob  []byte
	midi  [4]byte
	rgba  [4]byte
	achar byte
}

// Ok reports whether the slot carries a value at all.
func (v Value) Ok() bool {
	return v.ok
}

// Code returns the OSC type tag of the stored value. Meaningless if !Ok().
func (v Value) Code() Code {
	return v.code
}

func NewInt32(i int32) Value     { return Value{ok: true, code: Int32, i32: i} }
func NewFloat32(f float32) Value { return Value{ok: true, code: Float32, f32: f} }
func NewString(s string) Value   { return Value{ok: true, code: String, str: s} }
func NewBlob(b []byte) Value     { return Value{ok: true, code: Blob, blob: b} }
func NewInt64(i int64) Value     { return Value{ok: true, code: Int64, i64: i} }
func NewTimeTag(t int64) Value   { return Value{ok: true, code: TimeTag, i64: t} }
func NewDouble(d float64) Value  { return Value{ok: true, code: Double, f64: d} }
func NewAltString(s string) Value {
	return Value{ok: true, code: AltString, str: s}
}
func NewChar(c byte) Value      { return Value{ok: true, code: Char, achar: c} }
func NewRGBA(c [4]byte) Value   { return Value{ok: true, code: RGBA, rgba: c} }
func NewMIDI(m [4]byte) Value   { return Value{ok: true, code: MIDI, midi: m} }
func NewInfinitum() Value       { return Value{ok: true, code: Infinitum} }
func NewNil() Value             { return Value{ok: true, code: Nil} }

// NewBool maps a boolean onto the unit True/False OSC tags.
func NewBool(b bool) Value {
	if b {
		return Value{ok: true, code: True}
	}
	return Value{ok: true, code: False}
}

// Int32 returns the stored int32 and whether the value both is set and
// carries that type.
func (v Value) Int32() (int32, bool) {
	if !v.ok || v.code != Int32 {
		return 0, false
	}
	return v.i32, true
}

func (v Value) Float32() (float32, bool) {
	if !v.ok || v.code != Float32 {
		return 0, false
	}
	return v.f32, true
}

func (v Value) String() (string, bool) {
	if !v.ok || (v.code != String && v.code != AltString) {
		return "", false
	}
	return v.str, true
}

func (v Value) Blob() ([]byte, bool) {
	if !v.ok || v.code != Blob {
		return nil, false
	}
	return v.blob, true
}

func (v Value) Int64() (int64, bool) {
	if !v.ok || (v.code != Int64 && v.code != TimeTag) {
		return 0, false
	}
	return v.i64, true
}

func (v Value) Double() (float64, bool) {
	if !v.ok || v.code != Double {
		return 0, false
	}
	return v.f64, true
}

func (v Value) Char() (byte, bool) {
	if !v.ok || v.code != Char {
		return 0, false
	}
	return v.achar, true
}

func (v Value) RGBA() ([4]byte, bool) {
	if !v.ok || v.code != RGBA {
		return [4]byte{}, false
	}
	return v.rgba, true
}

func (v Value) MIDI() ([4]byte, bool) {
	if !v.ok || v.code != MIDI {
		return [4]byte{}, false
	}
	return v.midi, true
}

func (v Value) Bool() (bool, bool) {
	if !v.ok {
		return false, false
	}
	switch v.code {
	case True:
		return true, true
	case False:
		return false, true
	default:
		return false, false
	}
}

// Raw projects the value onto the plain Go type the JSON serializer should
// encode it as. Unit types with no payload encode as their conventional
// scalar (true/false/nil); Infinitum has no natural JSON scalar and encodes
// as the literal string "I", matching how OSC Query consumers special-case it.
func (v Value) Raw() interface{} {
	if !v.ok {
		return nil
	}
	switch v.code {
	case Int32:
		return v.i32
	case Float32:
		return v.f32
	case String, AltString:
		return v.str
	case Blob:
		return v.blob
	case Int64, TimeTag:
		return v.i64
	case Double:
		return v.f64
	case Char:
		return string(rune(v.achar))
	case RGBA:
		return v.rgba
	case MIDI:
		return v.midi
	case True:
		return true
	case False:
		return false
	case Nil:
		return nil
	case Infinitum:
		return "I"
	default:
		return nil
	}
}
