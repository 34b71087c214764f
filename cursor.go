package ctok

// cursor is a read-only byte view with a monotonic position. The tokenizer
// treats the byte one past the end of source as a synthetic '\n' so that
// the final field and line close without a special-cased end-of-input
// branch in every state.
type cursor struct {
	source []byte
	pos    int
}

func (c *cursor) reset(source []byte) {
	c.source = source
	c.pos = 0
}

// atEnd reports whether pos has advanced past the synthetic trailing
// newline, i.e. the tokenize loop's terminal condition.
func (c *cursor) atEnd() bool {
	return c.pos > len(c.source)
}

// byteAt returns the byte the tokenizer should dispatch on for the current
// position: the real byte if in range, else the synthetic '\n'.
func (c *cursor) byteAt() byte {
	if c.pos >= len(c.source) {
		return '\n'
	}
	return c.source[c.pos]
}

func (c *cursor) advance() {
	c.pos++
}

func (c *cursor) stepBack() {
	c.pos--
}
