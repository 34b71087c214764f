//go:build !unix

package srcmap

import "os"

// Open reads path into memory and returns a Source holding the copy.
// Non-unix builds have no portable mmap in this module's dependency set,
// so this is a plain read rather than a true mapping; callers only ever
// observe a borrowed []byte either way.
func Open(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Source{Bytes: data}, nil
}
