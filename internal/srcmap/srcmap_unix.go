//go:build unix

package srcmap

import "golang.org/x/sys/unix"

// Open memory-maps path read-only and returns a Source whose Bytes field
// aliases the mapping directly -- no copy, just ptr+len+handle over the
// file's contents.
func Open(path string) (*Source, error) {
	f, size, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if size == 0 {
		return &Source{Bytes: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	return &Source{
		Bytes: data,
		closer: func() error {
			return unix.Munmap(data)
		},
	}, nil
}
