package protocol

import "strings"

// Control words open server sentences and classify the whole sentence.
const (
	ControlRow   = "!re"
	ControlDone  = "!done"
	ControlTrap  = "!trap"
	ControlFatal = "!fatal"
)

// Marker bytes a word can open with.
const (
	markerControl   = '!'
	markerAttribute = '='
	markerQuery     = '?'
	markerAPI       = '.'
)

// Sentence is the ordered word list of one complete protocol message,
// wire terminator excluded.
type Sentence []string

// Control returns the sentence's control word, or "" when the sentence
// is empty or opens with a non-control word.
func (s Sentence) Control() string {
	if len(s) == 0 || len(s[0]) == 0 || s[0][0] != markerControl {
		return ""
	}
	return s[0]
}

// Attributes folds the attribute words of s into a key/value map. Words
// that do not open with the attribute marker (control, query, API) are
// left out, as are attribute words with no key. Later duplicates win.
// A sentence with no attribute words yields a nil map.
func (s Sentence) Attributes() map[string]string {
	var attrs map[string]string
	for _, word := range s {
		if len(word) == 0 || word[0] != markerAttribute {
			continue
		}
		key, value, ok := CutAttribute(word)
		if !ok {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string, len(s)-1)
		}
		attrs[key] = value
	}
	return attrs
}

// CutAttribute splits one attribute word into its key and value. The
// leading marker is optional. The separator is the first '=' after the
// key, so values keep any further '=' bytes verbatim.
func CutAttribute(word string) (key, value string, ok bool) {
	word = strings.TrimPrefix(word, "=")
	key, value, found := strings.Cut(word, "=")
	if !found || key == "" {
		return "", "", false
	}
	return key, value, true
}
