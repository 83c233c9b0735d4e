package domain

import (
	"bytes"
	"io"
	"os"
)

// ByteSource is a deferred, re-readable source of bytes. Every call to Open
// returns a fresh independent cursor, so concurrent consumers never share
// read state.
type ByteSource interface {
	// Open returns a new reader positioned at the start of the content.
	Open() (io.ReadCloser, error)

	// Size returns the total content size in bytes.
	Size() (int64, error)
}

type bytesSource struct {
	data []byte
}

// NewBytesSource returns a ByteSource backed by an in-memory byte slice.
func NewBytesSource(data []byte) ByteSource {
	return bytesSource{data: data}
}

func (s bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s bytesSource) Size() (int64, error) {
	return int64(len(s.data)), nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a ByteSource backed by a file on disk. The file is
// opened lazily on each read.
func NewFileSource(path string) ByteSource {
	return fileSource{path: path}
}

func (s fileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.path)
}

func (s fileSource) Size() (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ContentEqual reports whether two byte sources hold identical bytes. It
// opens a fresh cursor on each source and compares the streams in full.
func ContentEqual(a, b ByteSource) (bool, error) {
	sizeA, err := a.Size()
	if err != nil {
		return false, err
	}
	sizeB, err := b.Size()
	if err != nil {
		return false, err
	}
	if sizeA != sizeB {
		return false, nil
	}

	readerA, err := a.Open()
	if err != nil {
		return false, err
	}
	defer readerA.Close()

	readerB, err := b.Open()
	if err != nil {
		return false, err
	}
	defer readerB.Close()

	bufA := make([]byte, 32*1024)
	bufB := make([]byte, 32*1024)
	for {
		nA, errA := io.ReadFull(readerA, bufA)
		nB, errB := io.ReadFull(readerB, bufB)
		if nA != nB || !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}
		endA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		endB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if errA != nil && !endA {
			return false, errA
		}
		if errB != nil && !endB {
			return false, errB
		}
		if endA || endB {
			return endA && endB, nil
		}
	}
}
