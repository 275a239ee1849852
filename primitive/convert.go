package primitive

import (
	"encoding"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"chain-mapper/utils"
)

// Strategy names the runtime procedure a Conversion applies.
type Strategy int

const (
	StrategyAssign Strategy = iota
	StrategyConvert
	StrategyNumeric
	StrategyTextNumber
	StrategyNumericBool
	StrategyTextualBool
	StrategyDatetime
	StrategyTimestamp
	StrategyDuration
	StrategyNanoseconds
	StrategySeconds
	StrategyEnumToString
	StrategyStringToEnum
	StrategyEnumToEnum
	StrategyDeref
	StrategyWrap
	StrategyDynamic
)

var strategyNames = map[Strategy]string{
	StrategyAssign:       "assign",
	StrategyConvert:      "convert",
	StrategyNumeric:      "numeric",
	StrategyTextNumber:   "text-number",
	StrategyNumericBool:  "numeric-bool",
	StrategyTextualBool:  "textual-bool",
	StrategyDatetime:     "datetime",
	StrategyTimestamp:    "timestamp",
	StrategyDuration:     "duration",
	StrategyNanoseconds:  "nanoseconds",
	StrategySeconds:      "seconds",
	StrategyEnumToString: "enum-to-string",
	StrategyStringToEnum: "string-to-enum",
	StrategyEnumToEnum:   "enum-to-enum",
	StrategyDeref:        "deref",
	StrategyWrap:         "wrap",
	StrategyDynamic:      "dynamic",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}

	return "strategy(" + strconv.Itoa(int(s)) + ")"
}

var categoryStrategies = map[CategoryEnum]Strategy{
	CategorySafeNumber:   StrategyNumeric,
	CategoryUnsafeNumber: StrategyNumeric,
	CategoryTextNumber:   StrategyTextNumber,
	CategoryNumericBool:  StrategyNumericBool,
	CategoryTextualBool:  StrategyTextualBool,
	CategoryDatetime:     StrategyDatetime,
	CategoryTimestamp:    StrategyTimestamp,
	CategoryDuration:     StrategyDuration,
	CategoryNanoseconds:  StrategyNanoseconds,
	CategorySeconds:      StrategySeconds,
}

// ErrOverflow is wrapped by every range check failure of Apply.
var ErrOverflow = errors.New("value out of range")

// Conversion is a planned value conversion between two Go types.
type Conversion struct {
	From     reflect.Type
	To       reflect.Type
	Strategy Strategy
	Category CategoryEnum
	Inner    *Conversion // deref and wrap only

	allowed CategoryEnum
}

// String renders the conversion the way plan dumps and artifacts show it.
func (c *Conversion) String() string {
	switch c.Strategy {
	case StrategyAssign:
		if c.From == c.To {
			return "identity"
		}
	case StrategyDeref, StrategyWrap:
		return c.Strategy.String() + "(" + c.Inner.String() + ")"
	}

	return c.Strategy.String()
}

// IsIdentity reports a conversion that passes values through untouched.
func (c *Conversion) IsIdentity() bool {
	return c.Strategy == StrategyAssign && c.From == c.To
}

// Plan selects a conversion from one type to another using only the
// categories set in allowed. Assignable and convertible pairs outside the
// category table are always permitted.
func Plan(from, to reflect.Type, allowed CategoryEnum) (*Conversion, error) {
	if from == nil || to == nil {
		return nil, errors.New("conversion requires both types")
	}

	conv := &Conversion{From: from, To: to, allowed: allowed}

	if from == to || from.AssignableTo(to) {
		conv.Strategy = StrategyAssign
		return conv, nil
	}

	if from.Kind() == reflect.Interface {
		conv.Strategy = StrategyDynamic
		return conv, nil
	}

	if from.Kind() == reflect.Pointer {
		if inner, err := Plan(from.Elem(), to, allowed); err == nil {
			conv.Strategy = StrategyDeref
			conv.Inner = inner
			return conv, nil
		}
	}

	if to.Kind() == reflect.Pointer {
		if inner, err := Plan(from, to.Elem(), allowed); err == nil {
			conv.Strategy = StrategyWrap
			conv.Inner = inner
			return conv, nil
		}
	}

	fromKind, toKind := Of(from), Of(to)
	if fromKind != 0 && toKind != 0 {
		if fromKind == KindTime && toKind == KindTime {
			conv.Strategy = StrategyConvert
			return conv, nil
		}

		if fromKind == toKind && fromKind != KindPrimitiveEnum && !fromKind.IsNumber() {
			conv.Strategy = StrategyConvert
			return conv, nil
		}

		category := CategoryOf(fromKind, toKind, allowed)
		if category != CategoryNone {
			conv.Category = category
			conv.Strategy = strategyFor(category, fromKind, toKind)
			return conv, nil
		}

		if blocked := CategoryOf(fromKind, toKind, CategoryAll); blocked != CategoryNone {
			return nil, fmt.Errorf("conversion from %s to %s needs category %s which is not allowed", from, to, blocked)
		}
	}

	if from.ConvertibleTo(to) && !isRuneConversion(from, to) {
		conv.Strategy = StrategyConvert
		return conv, nil
	}

	return nil, fmt.Errorf("no conversion from %s to %s", from, to)
}

func strategyFor(category CategoryEnum, from, to KindEnum) Strategy {
	if category != CategoryEnumString {
		return categoryStrategies[category]
	}

	switch {
	case from == KindPrimitiveEnum && to == KindPrimitiveEnum:
		return StrategyEnumToEnum
	case from == KindPrimitiveEnum:
		return StrategyEnumToString
	default:
		return StrategyStringToEnum
	}
}

// isRuneConversion rejects the integer to string conversion Go permits,
// which yields a rune rather than the number text.
func isRuneConversion(from, to reflect.Type) bool {
	return to.Kind() == reflect.String && (isSigned(from.Kind()) || isUnsigned(from.Kind()))
}

// Apply converts v, which must be of type c.From.
func (c *Conversion) Apply(v reflect.Value) (reflect.Value, error) {
	switch c.Strategy {
	case StrategyAssign:
		if v.Type() == c.To {
			return v, nil
		}

		out := reflect.New(c.To).Elem()
		out.Set(v)

		return out, nil

	case StrategyConvert:
		return v.Convert(c.To), nil

	case StrategyDeref:
		if v.IsNil() {
			return reflect.Zero(c.To), nil
		}

		return c.Inner.Apply(v.Elem())

	case StrategyWrap:
		inner, err := c.Inner.Apply(v)
		if err != nil {
			return reflect.Value{}, err
		}

		ptr := reflect.New(c.To.Elem())
		ptr.Elem().Set(inner)

		return ptr, nil

	case StrategyDynamic:
		if v.IsNil() {
			return reflect.Zero(c.To), nil
		}

		elem := v.Elem()

		conv, err := Plan(elem.Type(), c.To, c.allowed)
		if err != nil {
			return reflect.Value{}, err
		}

		return conv.Apply(elem)

	case StrategyNumeric:
		return convertNumber(v, c.To)

	case StrategyTextNumber:
		return convertTextNumber(v, c.To)

	case StrategyNumericBool:
		out := reflect.New(c.To).Elem()
		switch {
		case v.Kind() == reflect.Bool && isSigned(c.To.Kind()):
			out.SetInt(boolToInt(v.Bool()))
		case v.Kind() == reflect.Bool:
			out.SetUint(uint64(boolToInt(v.Bool())))
		case isSigned(v.Kind()):
			out.SetBool(v.Int() != 0)
		default:
			out.SetBool(v.Uint() != 0)
		}

		return out, nil

	case StrategyTextualBool:
		out := reflect.New(c.To).Elem()
		if v.Kind() == reflect.Bool {
			out.SetString(strconv.FormatBool(v.Bool()))
			return out, nil
		}

		b, err := parseBool(v.String())
		if err != nil {
			return reflect.Value{}, err
		}

		out.SetBool(b)

		return out, nil

	case StrategyDatetime:
		if v.Kind() == reflect.String {
			t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v.String()))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("cannot parse %q as date/time: %w", v.String(), err)
			}

			return reflect.ValueOf(t).Convert(c.To), nil
		}

		out := reflect.New(c.To).Elem()
		out.SetString(asTime(v).Format(time.RFC3339Nano))

		return out, nil

	case StrategyTimestamp:
		if Of(c.To) == KindTime {
			var seconds int64
			if isSigned(v.Kind()) {
				seconds = v.Int()
			} else {
				if v.Uint() > math.MaxInt64 {
					return reflect.Value{}, overflow(v, c.To)
				}
				seconds = int64(v.Uint())
			}

			return reflect.ValueOf(time.Unix(seconds, 0).UTC()).Convert(c.To), nil
		}

		return convertNumber(reflect.ValueOf(asTime(v).Unix()), c.To)

	case StrategyDuration:
		if v.Kind() == reflect.String {
			d, err := time.ParseDuration(strings.TrimSpace(v.String()))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("cannot parse %q as duration: %w", v.String(), err)
			}

			return reflect.ValueOf(d).Convert(c.To), nil
		}

		out := reflect.New(c.To).Elem()
		out.SetString(time.Duration(v.Int()).String())

		return out, nil

	case StrategyNanoseconds:
		if Of(c.To) == KindDuration {
			return convertNumber(v, c.To)
		}

		return convertNumber(reflect.ValueOf(v.Int()), c.To)

	case StrategySeconds:
		if Of(c.To) == KindDuration {
			nanos := v.Float() * float64(time.Second)
			if math.IsNaN(nanos) || math.Abs(nanos) >= math.Ldexp(1, 63) {
				return reflect.Value{}, overflow(v, c.To)
			}

			return reflect.ValueOf(time.Duration(nanos)).Convert(c.To), nil
		}

		out := reflect.New(c.To).Elem()
		out.SetFloat(time.Duration(v.Int()).Seconds())

		return out, nil

	case StrategyEnumToString:
		out := reflect.New(c.To).Elem()
		out.SetString(enumText(v))

		return out, nil

	case StrategyStringToEnum:
		return parseEnum(v.String(), c.To)

	case StrategyEnumToEnum:
		return parseEnum(enumText(v), c.To)
	}

	return reflect.Value{}, fmt.Errorf("unsupported conversion strategy %s", c.Strategy)
}

func convertNumber(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()

	switch {
	case isSigned(v.Kind()):
		n := v.Int()
		switch {
		case isSigned(to.Kind()):
			lo, hi := signedRange(to)
			if !utils.IsInRange(lo, n, hi) {
				return reflect.Value{}, overflow(v, to)
			}
			out.SetInt(n)
		case isUnsigned(to.Kind()):
			if n < 0 || uint64(n) > unsignedMax(to) {
				return reflect.Value{}, overflow(v, to)
			}
			out.SetUint(uint64(n))
		default:
			out.SetFloat(float64(n))
		}

	case isUnsigned(v.Kind()):
		n := v.Uint()
		switch {
		case isSigned(to.Kind()):
			_, hi := signedRange(to)
			if n > uint64(hi) {
				return reflect.Value{}, overflow(v, to)
			}
			out.SetInt(int64(n))
		case isUnsigned(to.Kind()):
			if !utils.IsInRange(0, n, unsignedMax(to)) {
				return reflect.Value{}, overflow(v, to)
			}
			out.SetUint(n)
		default:
			out.SetFloat(float64(n))
		}

	default:
		f := v.Float()
		if to.Kind() == reflect.Float32 || to.Kind() == reflect.Float64 {
			if to.Kind() == reflect.Float32 && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
				return reflect.Value{}, overflow(v, to)
			}
			out.SetFloat(f)

			return out, nil
		}

		if math.IsNaN(f) || math.IsInf(f, 0) {
			return reflect.Value{}, overflow(v, to)
		}

		t := math.Trunc(f)
		bits := to.Bits()
		if isSigned(to.Kind()) {
			limit := math.Ldexp(1, bits-1)
			if t < -limit || t >= limit {
				return reflect.Value{}, overflow(v, to)
			}
			out.SetInt(int64(t))
		} else {
			if t < 0 || t >= math.Ldexp(1, bits) {
				return reflect.Value{}, overflow(v, to)
			}
			out.SetUint(uint64(t))
		}
	}

	return out, nil
}

func convertTextNumber(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	out := reflect.New(to).Elem()

	if to.Kind() == reflect.String {
		switch {
		case isSigned(v.Kind()):
			out.SetString(strconv.FormatInt(v.Int(), 10))
		case isUnsigned(v.Kind()):
			out.SetString(strconv.FormatUint(v.Uint(), 10))
		default:
			out.SetString(strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits()))
		}

		return out, nil
	}

	text := strings.TrimSpace(v.String())

	switch {
	case isSigned(to.Kind()):
		n, err := strconv.ParseInt(text, 10, to.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot parse %q as %s: %w", text, to, err)
		}
		out.SetInt(n)
	case isUnsigned(to.Kind()):
		n, err := strconv.ParseUint(text, 10, to.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot parse %q as %s: %w", text, to, err)
		}
		out.SetUint(n)
	default:
		f, err := strconv.ParseFloat(text, to.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot parse %q as %s: %w", text, to, err)
		}
		out.SetFloat(f)
	}

	return out, nil
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "on", "y", "1":
		return true, nil
	case "false", "no", "off", "n", "0":
		return false, nil
	}

	return false, fmt.Errorf("cannot parse %q as bool", text)
}

func enumText(v reflect.Value) string {
	if v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}

		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)

		if s, ok := ptr.Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}

	if v.Kind() == reflect.String {
		return v.String()
	}

	return strconv.FormatInt(v.Int(), 10)
}

type validator interface {
	IsValid() bool
}

func parseEnum(text string, to reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(to)

	switch u, ok := ptr.Interface().(encoding.TextUnmarshaler); {
	case ok:
		if err := u.UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, fmt.Errorf("cannot parse %q as %s: %w", text, to, err)
		}
	case to.Kind() == reflect.String:
		ptr.Elem().SetString(text)
	default:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, to.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("cannot parse %q as %s: %w", text, to, err)
		}
		ptr.Elem().SetInt(n)
	}

	if v, ok := ptr.Interface().(validator); ok && !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%q is not a valid %s", text, to)
	}

	return ptr.Elem(), nil
}

func asTime(v reflect.Value) time.Time {
	return v.Convert(timeType).Interface().(time.Time)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}

	return 0
}

func overflow(v reflect.Value, to reflect.Type) error {
	return fmt.Errorf("%w: %v does not fit %s", ErrOverflow, v, to)
}

func signedRange(t reflect.Type) (int64, int64) {
	hi := int64(1)<<(t.Bits()-1) - 1
	return -hi - 1, hi
}

func unsignedMax(t reflect.Type) uint64 {
	if t.Bits() == 64 {
		return math.MaxUint64
	}

	return uint64(1)<<t.Bits() - 1
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}
