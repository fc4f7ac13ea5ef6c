package protocol

import "strings"

// Kind classifies one interpreted server sentence.
type Kind int

const (
	KindEmpty Kind = iota // no words at all
	KindRow               // !re: one data row
	KindDone              // !done: reply finished
	KindTrap              // !trap: command-level failure
	KindFatal             // !fatal: session-ending failure
	KindData              // anything else: unstructured reply words
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindRow:
		return "row"
	case KindDone:
		return "done"
	case KindTrap:
		return "trap"
	case KindFatal:
		return "fatal"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// Reply is the interpreted form of one server sentence.
type Reply struct {
	Kind    Kind
	Row     map[string]string // KindRow: attribute words folded key to value
	Message string            // KindTrap, KindFatal: failure detail
	Ret     string            // KindDone: value of a ret attribute, if any
}

// Interpret classifies one complete sentence. It never fails: sentences
// that fit no control word come back as KindData and the caller decides
// what tolerating them means.
func Interpret(s Sentence) Reply {
	if len(s) == 0 {
		return Reply{Kind: KindEmpty}
	}
	switch s.Control() {
	case ControlRow:
		return Reply{Kind: KindRow, Row: s.Attributes()}
	case ControlDone:
		rep := Reply{Kind: KindDone}
		for _, word := range s[1:] {
			// Pre-6.43 logins answer with a ret attribute, with or
			// without the leading marker depending on the firmware.
			if key, value, ok := CutAttribute(word); ok && key == "ret" {
				rep.Ret = value
			}
		}
		return rep
	case ControlTrap:
		return Reply{Kind: KindTrap, Message: trapMessage(s)}
	case ControlFatal:
		return Reply{Kind: KindFatal, Message: strings.Join(s[1:], " ")}
	default:
		return Reply{Kind: KindData}
	}
}

// trapMessage extracts the trap's message attribute, falling back to
// the remaining raw words when the device sent none. The leading
// marker on the attribute is optional, as on the !done ret word.
func trapMessage(s Sentence) string {
	var msg string
	for _, word := range s[1:] {
		if key, value, ok := CutAttribute(word); ok && key == "message" {
			msg = value
		}
	}
	if msg == "" {
		return strings.Join(s[1:], " ")
	}
	return msg
}
