// Package srcmap opens an input file read-only and hands back a borrowed
// byte slice: the tokenizer core never opens files itself, it only ever
// consumes a []byte a caller already holds.
package srcmap

import "os"

// Source is a borrowed view of a file's contents. Close releases the
// underlying mapping (or buffer, on the fallback build). The returned
// Bytes slice must not be used after Close.
type Source struct {
	Bytes []byte

	closer func() error
}

// Close releases the resources backing Bytes.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	closer := s.closer
	s.closer = nil
	return closer()
}

func openFile(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
