package frame

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func encodeSentence(t *testing.T, words []string) []byte {
	t.Helper()
	buf, err := AppendSentence(nil, words)
	if err != nil {
		t.Fatalf("append sentence: %v", err)
	}
	return buf
}

func drainOne(t *testing.T, d *Decoder) ([]string, bool) {
	t.Helper()
	words, ok, err := d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	return words, ok
}

func TestDecoderWholeSentence(t *testing.T) {
	want := []string{"/interface/print", "=disabled=false"}
	d := NewDecoder(DefaultLimits())
	d.Feed(encodeSentence(t, want))

	got, ok := drainOne(t, d)
	if !ok {
		t.Fatalf("expected a complete sentence")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sentence mismatch: got %q want %q", got, want)
	}
	if _, ok := drainOne(t, d); ok {
		t.Fatalf("expected no second sentence")
	}
	if d.Buffered() != 0 {
		t.Fatalf("expected empty buffer, have %d bytes", d.Buffered())
	}
}

func TestDecoderByteAtATimeMatchesWhole(t *testing.T) {
	want := []string{"!re", "=name=ether1", "=running=true"}
	raw := encodeSentence(t, want)

	d := NewDecoder(DefaultLimits())
	for i, b := range raw {
		d.Feed([]byte{b})
		words, ok, err := d.Next()
		if err != nil {
			t.Fatalf("next after byte %d: %v", i, err)
		}
		if i < len(raw)-1 {
			if ok {
				t.Fatalf("sentence completed early at byte %d", i)
			}
			continue
		}
		if !ok {
			t.Fatalf("sentence not complete after final byte")
		}
		if !reflect.DeepEqual(words, want) {
			t.Fatalf("sentence mismatch: got %q want %q", words, want)
		}
	}
}

func TestDecoderManySentencesOneFeed(t *testing.T) {
	first := []string{"!re", "=name=ether1"}
	second := []string{"!done"}
	raw := append(encodeSentence(t, first), encodeSentence(t, second)...)

	d := NewDecoder(DefaultLimits())
	d.Feed(raw)

	got, ok := drainOne(t, d)
	if !ok || !reflect.DeepEqual(got, first) {
		t.Fatalf("first sentence: ok=%v got %q", ok, got)
	}
	got, ok = drainOne(t, d)
	if !ok || !reflect.DeepEqual(got, second) {
		t.Fatalf("second sentence: ok=%v got %q", ok, got)
	}
	if _, ok = drainOne(t, d); ok {
		t.Fatalf("expected exhausted decoder")
	}
}

func TestDecoderEmptySentence(t *testing.T) {
	d := NewDecoder(DefaultLimits())
	d.Feed([]byte{0x00})
	words, ok, err := d.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !ok {
		t.Fatalf("expected a terminator-only sentence")
	}
	if len(words) != 0 {
		t.Fatalf("expected zero words, got %q", words)
	}
}

func TestDecoderSuspendsOnPartialWord(t *testing.T) {
	raw := encodeSentence(t, []string{"/login"})
	d := NewDecoder(DefaultLimits())
	d.Feed(raw[:3])

	if _, ok := drainOne(t, d); ok {
		t.Fatalf("incomplete word must not complete a sentence")
	}
	if d.Buffered() != 3 {
		t.Fatalf("partial word consumed: %d bytes left", d.Buffered())
	}

	d.Feed(raw[3:])
	words, ok := drainOne(t, d)
	if !ok || len(words) != 1 || words[0] != "/login" {
		t.Fatalf("resumed sentence mismatch: ok=%v words=%q", ok, words)
	}
}

func TestDecoderUnknownLengthMarkerIsSticky(t *testing.T) {
	d := NewDecoder(DefaultLimits())
	d.Feed([]byte{0xF7})
	if _, _, err := d.Next(); !errors.Is(err, ErrFrameTooLong) {
		t.Fatalf("expected ErrFrameTooLong, got %v", err)
	}
	d.Feed([]byte{0x00})
	if _, _, err := d.Next(); !errors.Is(err, ErrFrameTooLong) {
		t.Fatalf("expected sticky ErrFrameTooLong, got %v", err)
	}
}

func TestDecoderWordLimit(t *testing.T) {
	d := NewDecoder(Limits{MaxWordBytes: 4, MaxSentenceWords: 16})
	raw, err := AppendWord(nil, "spine")
	if err != nil {
		t.Fatalf("append word: %v", err)
	}
	d.Feed(raw)
	if _, _, err := d.Next(); !errors.Is(err, ErrWordTooLong) {
		t.Fatalf("expected ErrWordTooLong, got %v", err)
	}
}

func TestDecoderSentenceWordLimit(t *testing.T) {
	d := NewDecoder(Limits{MaxWordBytes: 64, MaxSentenceWords: 2})
	raw := encodeSentence(t, []string{"!re", "=a=1", "=b=2"})
	d.Feed(raw)
	if _, _, err := d.Next(); !errors.Is(err, ErrSentenceTooLong) {
		t.Fatalf("expected ErrSentenceTooLong, got %v", err)
	}
}

func TestReadWriteSentenceRoundTrip(t *testing.T) {
	want := []string{"/ip/address/add", "=address=10.0.0.1/24", "=interface=ether1"}
	var buf bytes.Buffer
	if err := WriteSentence(&buf, want); err != nil {
		t.Fatalf("write sentence: %v", err)
	}
	got, err := ReadSentence(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read sentence: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch: got %q want %q", got, want)
	}
}

func TestReadSentenceTruncatedWord(t *testing.T) {
	raw := encodeSentence(t, []string{"/interface/print"})
	if _, err := ReadSentence(bytes.NewReader(raw[:5]), DefaultLimits()); err == nil {
		t.Fatalf("expected error on truncated word")
	}
}
