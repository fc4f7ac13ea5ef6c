// Package frame owns the byte-level wire format of the RouterOS API.
//
// Ownership boundary:
// - variable-width length prefix codec
// - word and sentence byte encoding
// - incremental sentence assembly from a chunked byte stream
//
// Word semantics (control words, attributes) live in the parent
// protocol package.
package frame

import (
	"errors"
	"io"
)

var (
	ErrWordTooLong     = errors.New("frame: word length exceeds limit")
	ErrSentenceTooLong = errors.New("frame: sentence exceeds word limit")
)

// Limits constrains decoder memory use against hostile length prefixes.
type Limits struct {
	MaxWordBytes     uint32
	MaxSentenceWords int
}

func DefaultLimits() Limits {
	return Limits{
		MaxWordBytes:     4 * 1024 * 1024,
		MaxSentenceWords: 4096,
	}
}

// AppendWord appends one length-prefixed word to dst.
func AppendWord(dst []byte, word string) ([]byte, error) {
	dst, err := AppendLength(dst, uint64(len(word)))
	if err != nil {
		return dst, err
	}
	return append(dst, word...), nil
}

// AppendSentence appends every word plus the zero-length terminator,
// producing one buffer so a whole sentence goes out in a single write.
func AppendSentence(dst []byte, words []string) ([]byte, error) {
	var err error
	for _, word := range words {
		dst, err = AppendWord(dst, word)
		if err != nil {
			return dst, err
		}
	}
	return append(dst, 0x00), nil
}

// WriteSentence writes one complete sentence to w.
func WriteSentence(w io.Writer, words []string) error {
	buf, err := AppendSentence(nil, words)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadSentence reads words from r until the zero-length terminator.
// It blocks until the sentence is complete; stream consumers that must
// not block on partial input use Decoder instead.
func ReadSentence(r io.Reader, limits Limits) ([]string, error) {
	var words []string
	var prefix [5]byte
	for {
		if _, err := io.ReadFull(r, prefix[:1]); err != nil {
			return nil, err
		}
		width, err := lengthWidth(prefix[0])
		if err != nil {
			return nil, err
		}
		if width > 1 {
			if _, err := io.ReadFull(r, prefix[1:width]); err != nil {
				if errors.Is(err, io.EOF) {
					return nil, io.ErrUnexpectedEOF
				}
				return nil, err
			}
		}
		n := decodeLength(prefix[:width])
		if n == 0 {
			return words, nil
		}
		if n > limits.MaxWordBytes {
			return nil, ErrWordTooLong
		}
		if len(words) >= limits.MaxSentenceWords {
			return nil, ErrSentenceTooLong
		}
		word := make([]byte, n)
		if _, err := io.ReadFull(r, word); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		words = append(words, string(word))
	}
}

// Decoder assembles sentences from transport bytes delivered in
// arbitrary chunks. Feed never blocks and Next never consumes a word
// until all of its bytes have arrived, so partial deliveries are
// preserved untouched for the next chunk.
type Decoder struct {
	limits Limits
	buf    []byte
	words  []string
	failed error
}

func NewDecoder(limits Limits) *Decoder {
	return &Decoder{limits: limits}
}

// Feed appends one chunk of transport bytes. The chunk is copied.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered reports how many fed bytes are not yet part of a completed
// sentence.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Next extracts one complete sentence from the buffered bytes. ok is
// false when more bytes are needed. Decode errors are sticky: once the
// stream is unframeable it cannot be resynchronized.
func (d *Decoder) Next() (words []string, ok bool, err error) {
	if d.failed != nil {
		return nil, false, d.failed
	}
	for {
		if len(d.buf) == 0 {
			return nil, false, nil
		}
		width, err := lengthWidth(d.buf[0])
		if err != nil {
			return nil, false, d.fail(err)
		}
		if len(d.buf) < width {
			return nil, false, nil
		}
		n := decodeLength(d.buf[:width])
		if n == 0 {
			d.buf = d.buf[width:]
			out := d.words
			d.words = nil
			return out, true, nil
		}
		if n > d.limits.MaxWordBytes {
			return nil, false, d.fail(ErrWordTooLong)
		}
		if len(d.buf) < width+int(n) {
			return nil, false, nil
		}
		if len(d.words) >= d.limits.MaxSentenceWords {
			return nil, false, d.fail(ErrSentenceTooLong)
		}
		d.words = append(d.words, string(d.buf[width:width+int(n)]))
		d.buf = d.buf[width+int(n):]
	}
}

func (d *Decoder) fail(err error) error {
	d.failed = err
	return err
}
