package ctok

import (
	"errors"
	"math"
	"strconv"
)

// dblMinExp and dblMaxExp bound the decimal exponent xstrtod accepts
// before giving up and reporting overflow, matching the IEEE-754 binary64
// exponent range (DBL_MIN_EXP / DBL_MAX_EXP) the platform C library
// exposes via float.h.
const (
	dblMinExp = -1021
	dblMaxExp = 1024
)

func isCSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isBaseDigit(c byte, base int) bool {
	switch base {
	case 16:
		return isHexDigit(c)
	case 8:
		return c >= '0' && c <= '7'
	default:
		return isDigit(c)
	}
}

func toUpperASCII(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// ToInt64 parses a base-auto integer: a leading "0x"/"0X" selects base 16,
// a leading "0" selects base 8, anything else is base 10 -- the same rule
// strtol(str, &tmp, 0) applies. On trailing garbage it sets
// ConversionError; on magnitude overflow it sets OverflowError; the
// parsed (possibly clamped) value is returned regardless of the code.
func (t *Tokenizer) ToInt64(str string) (int64, Code) {
	n := len(str)
	i := 0
	for i < n && isCSpace(str[i]) {
		i++
	}

	neg := false
	if i < n && (str[i] == '+' || str[i] == '-') {
		neg = str[i] == '-'
		i++
	}

	base := 10
	digitsStart := i
	if i+2 < n && str[i] == '0' && (str[i+1] == 'x' || str[i+1] == 'X') && isHexDigit(str[i+2]) {
		base = 16
		i += 2
		digitsStart = i
	} else if i < n && str[i] == '0' {
		base = 8
	}

	for i < n && isBaseDigit(str[i], base) {
		i++
	}
	digitsEnd := i

	if digitsEnd == digitsStart {
		t.code = ConversionError
		return 0, ConversionError
	}

	digits := str[digitsStart:digitsEnd]
	if neg {
		digits = "-" + digits
	}
	val, err := strconv.ParseInt(digits, base, 64)

	var code Code
	switch {
	case digitsEnd < n:
		code = ConversionError
	case err != nil && errors.Is(err, strconv.ErrRange):
		code = OverflowError
	default:
		code = NoError
	}
	t.code = code
	return val, code
}

// ToDouble parses a floating-point string, using the in-repo xstrtod fast
// path when UseFastConverter is set, else deferring to strconv.ParseFloat
// as the platform decimal parser. Both set ConversionError on trailing
// non-whitespace and OverflowError on range failure.
func (t *Tokenizer) ToDouble(str string) (float64, Code) {
	if t.UseFastConverter {
		val, consumed, xcode := xstrtod(str, '.', 'E', ',', true)
		var code Code
		switch {
		case consumed < len(str):
			code = ConversionError
		case xcode == OverflowError && val == 0:
			// xstrtod reports OverflowError with a zero value only when it
			// never saw a digit to parse (empty or all-whitespace input);
			// a genuine magnitude overflow always returns +Inf instead.
			code = ConversionError
		case xcode == OverflowError:
			code = OverflowError
		default:
			code = NoError
		}
		t.code = code
		return val, code
	}

	trimmed := str
	end := len(trimmed)
	for end > 0 && isCSpace(trimmed[end-1]) {
		end--
	}
	val, err := strconv.ParseFloat(trimmed[:end], 64)

	var code Code
	switch {
	case err == nil:
		code = NoError
	case isRangeError(err):
		code = OverflowError
	default:
		code = ConversionError
	}
	t.code = code
	return val, code
}

func isRangeError(err error) bool {
	var numErr *strconv.NumError
	return errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange)
}

// xstrtod is a from-scratch decimal-to-double converter tuned for this
// pipeline: it accumulates digits into a double directly (n = n*10 + d)
// rather than going through a generic parser, accepts a configurable
// decimal point, exponent marker, and thousands separator, and scales the
// mantissa by 10^exponent via exponentiation-by-squaring instead of a
// table lookup. It returns the parsed value, how many bytes of str were
// consumed, and a Code set to OverflowError on range failure (never
// ConversionError -- that check belongs to the caller, which knows
// whether full consumption was required).
func xstrtod(str string, decimal, sci, tsep byte, skipTrailing bool) (float64, int, Code) {
	n := len(str)
	p := 0

	for p < n && isCSpace(str[p]) {
		p++
	}

	negative := false
	if p < n && (str[p] == '+' || str[p] == '-') {
		negative = str[p] == '-'
		p++
	}

	number := 0.0
	exponent := 0
	numDigits := 0
	numDecimals := 0

	for p < n && isDigit(str[p]) {
		number = number*10 + float64(str[p]-'0')
		p++
		numDigits++
		for tsep != 0 && p < n && str[p] == tsep {
			p++
		}
	}

	if p < n && str[p] == decimal {
		p++
		for p < n && isDigit(str[p]) {
			number = number*10 + float64(str[p]-'0')
			p++
			numDigits++
			numDecimals++
		}
		exponent -= numDecimals
	}

	if numDigits == 0 {
		return 0.0, p, OverflowError
	}

	if negative {
		number = -number
	}

	if p < n && toUpperASCII(str[p]) == toUpperASCII(sci) {
		p++
		expNegative := false
		if p < n && (str[p] == '+' || str[p] == '-') {
			expNegative = str[p] == '-'
			p++
		}
		exp := 0
		for p < n && isDigit(str[p]) {
			exp = exp*10 + int(str[p]-'0')
			p++
		}
		if expNegative {
			exponent -= exp
		} else {
			exponent += exp
		}
	}

	code := NoError

	if exponent < dblMinExp || exponent > dblMaxExp {
		if skipTrailing {
			for p < n && isCSpace(str[p]) {
				p++
			}
		}
		return math.Inf(1), p, OverflowError
	}

	p10 := 10.0
	absExp := exponent
	if absExp < 0 {
		absExp = -absExp
	}
	for absExp != 0 {
		if absExp&1 != 0 {
			if exponent < 0 {
				number /= p10
			} else {
				number *= p10
			}
		}
		absExp >>= 1
		p10 *= p10
	}

	if number == math.Inf(1) {
		code = OverflowError
	}

	if skipTrailing {
		for p < n && isCSpace(str[p]) {
			p++
		}
	}

	return number, p, code
}
