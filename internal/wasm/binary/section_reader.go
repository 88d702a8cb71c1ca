package binary

import (
	"bytes"
	"fmt"
	"io"
)

// sectionReader wraps a *bytes.Reader with a declared byte budget, refusing any read that would cross it. The
// module driver opens one per top-level section; the code section decoder opens a nested one per function body.
// This is the generalization of the teacher's absolute-position bookkeeping (comparing a start offset against
// the reader's current position after decode) into a reader that enforces the bound as reads happen, rather than
// checking it only after the fact.
type sectionReader struct {
	r         *bytes.Reader
	remaining int64
}

// newSectionReader carves out a bounded view of length from r. r must have at least length bytes remaining.
func newSectionReader(r *bytes.Reader, length uint32) (*sectionReader, error) {
	if int64(length) > int64(r.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	return &sectionReader{r: r, remaining: int64(length)}, nil
}

// Read implements io.Reader, refusing to serve bytes past the section's declared length.
func (s *sectionReader) Read(p []byte) (int, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > s.remaining {
		p = p[:s.remaining]
	}
	n, err := s.r.Read(p)
	s.remaining -= int64(n)
	return n, err
}

// ReadByte implements io.ByteReader so leb128's zero-alloc decode path applies here too.
func (s *sectionReader) ReadByte() (byte, error) {
	if s.remaining <= 0 {
		return 0, io.EOF
	}
	b, err := s.r.ReadByte()
	if err == nil {
		s.remaining--
	}
	return b, err
}

// UnreadByte implements io.ByteScanner so a single byte of lookahead (used by decodeBlockType) works against a
// bounded section the same way it does against a raw *bytes.Reader.
func (s *sectionReader) UnreadByte() error {
	if err := s.r.UnreadByte(); err != nil {
		return err
	}
	s.remaining++
	return nil
}

// BytesLeft returns the number of bytes still permitted to be read from this section.
func (s *sectionReader) BytesLeft() int64 { return s.remaining }

// AssertEnd fails unless every declared byte of the section was consumed, catching both under- and
// over-consumption by a section decoder.
func (s *sectionReader) AssertEnd() error {
	if s.remaining != 0 {
		return fmt.Errorf("section declared length disagrees with consumed bytes: %d bytes left over", s.remaining)
	}
	return nil
}
