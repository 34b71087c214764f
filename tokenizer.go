package ctok

import (
	"github.com/klauspost/cpuid/v2"
)

// state is the tokenizer's finite-state byte classifier state.
type state int

const (
	startLine state = iota
	startField
	field
	startQuotedField
	quotedField
	quotedFieldNewline
	commentState
	carriageReturn
)

// Tokenizer turns a contiguous byte buffer into packed per-column field
// buffers. One instance may be reused across many Tokenize calls against
// different inputs; it is not safe for concurrent use.
type Tokenizer struct {
	// Delimiter separates fields. May be space or tab.
	Delimiter byte
	// Comment marks a comment line; zero disables comment handling.
	Comment byte
	// Quotechar opens and closes quoted fields.
	Quotechar byte
	// FillExtraCols pads short rows with empty fields instead of erroring.
	FillExtraCols bool
	// StripWhitespaceLines strips leading/trailing spaces and tabs at line
	// boundaries.
	StripWhitespaceLines bool
	// StripWhitespaceFields strips leading/trailing spaces and tabs of
	// each field.
	StripWhitespaceFields bool
	// UseFastConverter selects the built-in xstrtod decimal parser over
	// strconv.ParseFloat for ToDouble. Defaults on when the running CPU
	// is one this module's fast path has been validated against.
	UseFastConverter bool

	cur  cursor
	out  columnSet
	iter fieldIterator

	numCols int
	numRows int
	code    Code
}

// NewTokenizer builds a Tokenizer with the given configuration bytes and
// flags. UseFastConverter defaults according to the host CPU's feature
// set, mirroring the capability-probe-then-fallback shape used to gate an
// optimized path before falling back to the portable one.
func NewTokenizer(delimiter, comment, quotechar byte, fillExtraCols, stripWhitespaceLines, stripWhitespaceFields bool) *Tokenizer {
	return &Tokenizer{
		Delimiter:             delimiter,
		Comment:               comment,
		Quotechar:             quotechar,
		FillExtraCols:         fillExtraCols,
		StripWhitespaceLines:  stripWhitespaceLines,
		StripWhitespaceFields: stripWhitespaceFields,
		UseFastConverter:      defaultUseFastConverter(),
	}
}

// defaultUseFastConverter reports whether the host CPU exposes SSE2, the
// baseline float ABI xstrtod's scaling loop was validated against. It is
// true on amd64 hosts, where SSE2 is guaranteed, and false everywhere
// cpuid can't confirm it -- ARM included -- in which case ToDouble falls
// back to strconv.ParseFloat.
func defaultUseFastConverter() bool {
	return cpuid.CPU.Supports(cpuid.SSE2)
}

// Code returns the last error code recorded by SkipLines or Tokenize.
func (t *Tokenizer) Code() Code {
	return t.code
}

// NumRows returns the number of data rows fully emitted by the last
// Tokenize call.
func (t *Tokenizer) NumRows() int {
	return t.numRows
}

// SetSource installs a new input buffer and zeros the cursor. The slice is
// borrowed: the Tokenizer never mutates or frees it.
func (t *Tokenizer) SetSource(source []byte) {
	t.cur.reset(source)
}

// SkipLines advances past offset significant lines, positioning the
// cursor at the start of the header or at the first data line. A line is
// significant iff it contains at least one byte that is not stripped and
// its first such byte is not the comment byte; comment lines are never
// counted.
func (t *Tokenizer) SkipLines(offset int, header bool) Code {
	signifChars := 0
	comment := false

	for i := 0; i < offset; {
		if t.cur.pos >= len(t.cur.source) {
			if header {
				t.code = InvalidLine
				return InvalidLine
			}
			t.code = NoError
			return NoError
		}

		c := t.cur.source[t.cur.pos]

		switch {
		case c == '\r' || c == '\n':
			if c == '\r' && t.cur.pos < len(t.cur.source)-1 && t.cur.source[t.cur.pos+1] == '\n' {
				t.cur.pos++
			}
			if !comment && signifChars > 0 {
				i++
			}
			signifChars = 0
			comment = false
		case !isSpaceOrTab(c) || !t.StripWhitespaceLines || header:
			if signifChars == 0 && t.Comment != 0 && c == t.Comment {
				comment = true
			}
			signifChars++
		}

		t.cur.pos++
	}

	t.code = NoError
	return NoError
}

func isSpaceOrTab(c byte) bool {
	return c == ' ' || c == '\t'
}

// Tokenize runs the state machine until num_rows == end (or to EOF when
// end == -1). header == true forces num_cols to 1 and captures the entire
// line -- delimiters and quote characters included -- as the literal
// content of column 0; downstream re-tokenization of that line with normal
// delimiter rules is the caller's responsibility.
func (t *Tokenizer) Tokenize(end int, header bool, numCols int) Code {
	t.out.reset()

	if header {
		t.numCols = 1
	} else {
		t.numCols = numCols
	}
	t.out = newColumnSet(t.numCols)
	t.numRows = 0
	t.code = NoError

	if end == 0 {
		return NoError
	}

	col := 0
	st := startLine
	oldState := startLine
	parseNewline := false
	fieldIsWhitespace := true

	source := t.cur.source

	for t.cur.pos <= len(source) {
		var c byte
		if t.cur.pos == len(source) || parseNewline {
			c = '\n'
		} else {
			c = source[t.cur.pos]
		}
		parseNewline = false

	reprocess:
		switch st {
		case startLine:
			switch {
			case c == '\n':
			case c == '\r':
				oldState, st = st, carriageReturn
			case isSpaceOrTab(c) && t.StripWhitespaceLines:
			case t.Comment != 0 && c == t.Comment:
				st = commentState
			default:
				col = 0
				st = startField
				fieldIsWhitespace = true
				goto reprocess
			}

		case startField:
			switch {
			case isSpaceOrTab(c) && t.StripWhitespaceFields:
			case !t.StripWhitespaceLines && t.Comment != 0 && c == t.Comment:
				st = commentState
			case !header && c == t.Delimiter:
				t.endField(&col, header)
				st = startField
				fieldIsWhitespace = true
			case c == '\r':
				oldState, st = st, carriageReturn
			case c == '\n':
				t.closeTrailingField(&col, header)
				terminate, code := t.endLine(col, header, end)
				st = startLine
				if terminate {
					t.code = code
					return code
				}
			case !header && c == t.Quotechar:
				if col >= t.numCols {
					t.code = TooManyCols
					return TooManyCols
				}
				st = startQuotedField
			default:
				if col >= t.numCols {
					t.code = TooManyCols
					return TooManyCols
				}
				st = field
				goto reprocess
			}

		case field:
			switch {
			case t.Comment != 0 && c == t.Comment && fieldIsWhitespace && col == 0:
				st = commentState
			case !header && c == t.Delimiter:
				t.endField(&col, header)
				st = startField
				fieldIsWhitespace = true
			case c == '\r':
				oldState, st = st, carriageReturn
			case c == '\n':
				t.endField(&col, header)
				terminate, code := t.endLine(col, header, end)
				st = startLine
				if terminate {
					t.code = code
					return code
				}
			default:
				if !isSpaceOrTab(c) {
					fieldIsWhitespace = false
				}
				t.out.cols[col].push(c)
			}

		case startQuotedField:
			switch {
			case isSpaceOrTab(c) && t.StripWhitespaceFields:
			case c == t.Quotechar:
				t.endField(&col, header)
				st = startField
				fieldIsWhitespace = true
			default:
				st = quotedField
				goto reprocess
			}

		case quotedField:
			switch {
			case c == t.Quotechar:
				st = field
			case c == '\n':
				st = quotedFieldNewline
			case c == '\r':
				oldState, st = st, carriageReturn
			default:
				t.out.cols[col].push(c)
			}

		case quotedFieldNewline:
			switch {
			case (isSpaceOrTab(c) && t.StripWhitespaceLines) || c == '\n':
			case c == '\r':
				oldState, st = st, carriageReturn
			case c == t.Quotechar:
				st = field
			default:
				st = quotedField
				goto reprocess
			}

		case commentState:
			switch {
			case c == '\n':
				st = startLine
			case c == '\r':
				oldState, st = st, carriageReturn
			}

		case carriageReturn:
			st = oldState
			t.cur.stepBack()
			if c != '\n' {
				t.cur.stepBack()
				parseNewline = true
			}
		}

		t.cur.advance()
	}

	t.code = NoError
	return NoError
}

// endField right-strips trailing whitespace when configured, writes the
// empty-field sentinel if nothing was written for this field, writes the
// terminator, and advances col unless tokenizing a header.
func (t *Tokenizer) endField(col *int, header bool) {
	cb := &t.out.cols[*col]
	if t.StripWhitespaceFields {
		for cb.write > 0 && isSpaceOrTab(cb.data[cb.write-1]) {
			cb.write--
			cb.data[cb.write] = 0
		}
	}
	if cb.write == 0 || cb.data[cb.write-1] == fieldTerminator {
		cb.push(emptyFieldSentinel)
	}
	cb.push(fieldTerminator)
	if !header {
		(*col)++
	}
}

// closeTrailingField implements the whitespace-delimited newline edge
// case from START_FIELD's newline handling: when a line ends while still
// in START_FIELD (no characters consumed yet for the pending field), a
// non-stripped trailing run of whitespace is replayed into the field
// before it is closed, and a stripped whitespace-delimited line does not
// manufacture a spurious empty trailing field.
func (t *Tokenizer) closeTrailingField(col *int, header bool) {
	source := t.cur.source
	pos := t.cur.pos

	if t.StripWhitespaceLines {
		if t.Delimiter == ' ' || t.Delimiter == '\t' {
			return
		}
		t.endField(col, header)
		return
	}

	tmp := pos
	pos--
	for pos >= 0 && source[pos] != t.Delimiter && source[pos] != '\n' && source[pos] != '\r' {
		pos--
	}

	if pos == -1 || source[pos] == '\n' || source[pos] == '\r' {
		return
	}

	pos++
	for pos < tmp {
		t.out.cols[*col].push(source[pos])
		pos++
	}
	t.endField(col, header)
}

// endLine pads short rows, validates column counts, and increments
// numRows. terminate reports whether Tokenize must return immediately
// (header mode, or the requested row count was reached).
func (t *Tokenizer) endLine(col int, header bool, end int) (terminate bool, code Code) {
	if header {
		t.cur.advance()
		return true, NoError
	}
	if t.FillExtraCols {
		for col < t.numCols {
			cb := &t.out.cols[col]
			cb.push(emptyFieldSentinel)
			cb.push(fieldTerminator)
			col++
		}
	} else if col < t.numCols {
		return true, NotEnoughCols
	}
	t.numRows++
	if end != -1 && t.numRows == end {
		t.cur.advance()
		return true, NoError
	}
	return false, NoError
}
