package primitive

import (
	"fmt"
	"strings"
)

type CategoryEnum int

type ConversionPair struct {
	From, To KindEnum
}

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                          // int, uint, float with precision loss
	CategoryTextNumber                            // int, uint, float <-> string: textual number representation
	CategoryNumericBool                           // int <-> bool: 0, 1 representation of boolean values
	CategoryTextualBool                           // string <-> bool: yes, no, on, off, true, false representation of boolean values
	CategoryDatetime                              // string(RFC3339Nano) <-> time.Time: textual date and time representation
	CategoryTimestamp                             // int(Unix seconds) <-> time.Time: Unix timestamp representation
	CategoryDuration                              // string(2h45m) <-> time.Duration: textual duration representation
	CategoryNanoseconds                           // int(nanoseconds) <-> time.Duration: numerical (integer) duration representation
	CategorySeconds                               // float(seconds) <-> time.Duration: numerical (floating-point) duration representation
	CategoryEnumString                            // string <-> enum: textual representation of an enum type (uses parse/isValid/string methods)

	CategoryAll  CategoryEnum = (1 << iota) - 1 // all categories combined
	CategoryNone CategoryEnum = 0                // no categories selected
)

// categoryOrder is the lookup order of CategoryOf: safe pairs win over
// unsafe ones and the first matching category is reported.
var categoryOrder = []CategoryEnum{
	CategorySafeNumber,
	CategoryUnsafeNumber,
	CategoryTextNumber,
	CategoryNumericBool,
	CategoryTextualBool,
	CategoryDatetime,
	CategoryTimestamp,
	CategoryDuration,
	CategoryNanoseconds,
	CategorySeconds,
	CategoryEnumString,
}

var categoryNames = map[CategoryEnum]string{
	CategorySafeNumber:   "safe-number",
	CategoryUnsafeNumber: "unsafe-number",
	CategoryTextNumber:   "text-number",
	CategoryNumericBool:  "numeric-bool",
	CategoryTextualBool:  "textual-bool",
	CategoryDatetime:     "datetime",
	CategoryTimestamp:    "timestamp",
	CategoryDuration:     "duration",
	CategoryNanoseconds:  "nanoseconds",
	CategorySeconds:      "seconds",
	CategoryEnumString:   "enum-string",
}

// pairSet holds the kind pairs of one category.
type pairSet map[ConversionPair]struct{}

// both adds the conversions a -> b and b -> a.
func (s pairSet) both(a, b KindEnum) {
	s[ConversionPair{a, b}] = struct{}{}
	s[ConversionPair{b, a}] = struct{}{}
}

func bidirectional(a, b KindEnum) pairSet {
	s := pairSet{}
	s.both(a, b)

	return s
}

func kindsWhere(keep func(KindEnum) bool) []KindEnum {
	var out []KindEnum
	for k := KindEnum(0); int(k) < KindTotal; k++ {
		if keep(k) {
			out = append(out, k)
		}
	}

	return out
}

var conversionPairs map[CategoryEnum]pairSet

func init() {
	numbers := kindsWhere(KindEnum.IsNumber)
	integers := kindsWhere(KindEnum.IsInteger)

	safe := safeNumberConversionPairs()

	// every number pair the safe table leaves out loses precision or range
	unsafe := pairSet{}
	for _, from := range numbers {
		for _, to := range numbers {
			if _, ok := safe[ConversionPair{from, to}]; !ok {
				unsafe[ConversionPair{from, to}] = struct{}{}
			}
		}
	}

	text, numericBool, timestamp, nanoseconds := pairSet{}, pairSet{}, pairSet{}, pairSet{}
	for _, k := range numbers {
		text.both(k, KindString)
	}

	for _, k := range integers {
		numericBool.both(k, KindBool)
		timestamp.both(k, KindTime)

		// uint64 nanoseconds overflow time.Duration
		if k != KindUint64 {
			nanoseconds.both(k, KindDuration)
		}
	}

	seconds := bidirectional(KindFloat32, KindDuration)
	seconds.both(KindFloat64, KindDuration)

	enums := bidirectional(KindString, KindPrimitiveEnum)
	enums[ConversionPair{KindPrimitiveEnum, KindPrimitiveEnum}] = struct{}{}

	conversionPairs = map[CategoryEnum]pairSet{
		CategorySafeNumber:   safe,
		CategoryUnsafeNumber: unsafe,
		CategoryTextNumber:   text,
		CategoryNumericBool:  numericBool,
		CategoryTextualBool:  bidirectional(KindString, KindBool),
		CategoryDatetime:     bidirectional(KindString, KindTime),
		CategoryTimestamp:    timestamp,
		CategoryDuration:     bidirectional(KindString, KindDuration),
		CategoryNanoseconds:  nanoseconds,
		CategorySeconds:      seconds,
		CategoryEnumString:   enums,
	}
}

func safeNumberConversionPairs() pairSet {
	return pairSet{
		{KindInt, KindInt}:   {}, // int can be any wide from 32 upto 64
		{KindInt, KindInt64}: {},

		{KindInt8, KindInt}:     {}, // int8 can be safely converted to any signed int
		{KindInt8, KindInt8}:    {},
		{KindInt8, KindInt16}:   {},
		{KindInt8, KindInt32}:   {},
		{KindInt8, KindInt64}:   {},
		{KindInt8, KindFloat32}: {},
		{KindInt8, KindFloat64}: {},

		{KindInt16, KindInt}:     {},
		{KindInt16, KindInt16}:   {}, // int16 omitting narrowing to int8
		{KindInt16, KindInt32}:   {},
		{KindInt16, KindInt64}:   {},
		{KindInt16, KindFloat32}: {},
		{KindInt16, KindFloat64}: {},

		{KindInt32, KindInt}:     {},
		{KindInt32, KindInt32}:   {}, // int32 omitting narrowing to int8/16
		{KindInt32, KindInt64}:   {},
		{KindInt32, KindFloat64}: {}, // int32 is wider than float32 mantissa

		{KindInt64, KindInt64}: {}, // int64 is the widest signed integer type

		{KindUint, KindUint}:   {}, // uint can be any wide from 32 upto 64
		{KindUint, KindUint64}: {},

		{KindUint8, KindUint}:    {}, // uint8 can be safely converted to any unsigned int
		{KindUint8, KindUint8}:   {},
		{KindUint8, KindUint16}:  {},
		{KindUint8, KindUint32}:  {},
		{KindUint8, KindUint64}:  {},
		{KindUint8, KindInt}:     {}, // also uint8 can be converted to any wider signed int
		{KindUint8, KindInt16}:   {},
		{KindUint8, KindInt32}:   {},
		{KindUint8, KindInt64}:   {},
		{KindUint8, KindFloat32}: {},
		{KindUint8, KindFloat64}: {},

		{KindUint16, KindUint}:    {},
		{KindUint16, KindUint16}:  {}, // uint16 omitting narrowing to uint8
		{KindUint16, KindUint32}:  {},
		{KindUint16, KindUint64}:  {},
		{KindUint16, KindInt}:     {}, // also uint16 can be converted to any wider signed int
		{KindUint16, KindInt32}:   {},
		{KindUint16, KindInt64}:   {},
		{KindUint16, KindFloat32}: {},
		{KindUint16, KindFloat64}: {},

		{KindUint32, KindUint32}:  {},
		{KindUint32, KindUint64}:  {}, // uint32 omitting narrowing to uint8/16
		{KindUint32, KindInt64}:   {}, // also only int64 is wide enough to hold uint32
		{KindUint32, KindFloat64}: {}, // uint32 is wider than float32 mantissa

		{KindUint64, KindUint64}: {}, // uint64 is the widest unsigned integer type

		{KindFloat32, KindFloat32}: {},
		{KindFloat32, KindFloat64}: {},

		{KindFloat64, KindFloat64}: {},
	}
}

// CategoryOf returns the first category within allowed that contains the
// kind pair, or CategoryNone.
func CategoryOf(from, to KindEnum, allowed CategoryEnum) CategoryEnum {
	pair := ConversionPair{from, to}
	for _, category := range categoryOrder {
		if allowed&category == 0 {
			continue
		}

		if _, ok := conversionPairs[category][pair]; ok {
			return category
		}
	}

	return CategoryNone
}

// String renders a category mask as a "|" separated list of names.
func (c CategoryEnum) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryAll:
		return "all"
	}

	var names []string
	for _, category := range categoryOrder {
		if c&category != 0 {
			names = append(names, categoryNames[category])
		}
	}

	return strings.Join(names, "|")
}

// ParseCategories builds a mask from category names; "all" and "none" are
// accepted as shorthands.
func ParseCategories(names []string) (CategoryEnum, error) {
	mask := CategoryEnum(CategoryNone)
	for _, raw := range names {
		name := strings.TrimSpace(strings.ToLower(raw))
		switch name {
		case "":
			continue
		case "all":
			mask |= CategoryAll
			continue
		case "none":
			continue
		}

		found := false
		for category, categoryName := range categoryNames {
			if categoryName == name {
				mask |= category
				found = true
				break
			}
		}

		if !found {
			return CategoryNone, fmt.Errorf("unknown conversion category %q", raw)
		}
	}

	return mask, nil
}
