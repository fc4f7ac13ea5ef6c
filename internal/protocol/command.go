package protocol

import "strings"

// CommandWords builds the wire words for a command path and its tokens.
// A token carrying a key=value assignment gains the attribute marker
// unless it already opens with one. Every other token passes through
// verbatim, so pre-marked attributes, query words, API words, and bare
// flags are sent exactly as written.
func CommandWords(path string, args []string) Sentence {
	words := make(Sentence, 0, len(args)+1)
	words = append(words, path)
	for _, arg := range args {
		words = append(words, commandToken(arg))
	}
	return words
}

func commandToken(tok string) string {
	if tok == "" || !strings.Contains(tok, "=") {
		return tok
	}
	switch tok[0] {
	case markerAttribute, markerQuery, markerControl, markerAPI:
		return tok
	}
	return string(markerAttribute) + tok
}
