package savestore

import (
	"bytes"
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var errFileTooLarge = errors.New("savestore: file too large to map")

// File is a save opened for reading. The bytes are mapped read-only when the
// platform allows it and read into memory otherwise. Data must not be used
// after Close.
type File struct {
	Data    []byte
	mmapped bool
}

// OpenFile maps the save at path.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, errFileTooLarge
	}
	size := int(size64)
	if size == 0 {
		return &File{Data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return &File{Data: data, mmapped: true}, nil
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return &File{Data: data}, nil
}

// Reader returns a reader over the whole save.
func (f *File) Reader() *bytes.Reader { return bytes.NewReader(f.Data) }

// Size is the save length in bytes.
func (f *File) Size() int64 { return int64(len(f.Data)) }

// Close releases the mapping.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.mmapped = false
	return err
}
