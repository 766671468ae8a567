package session

import (
	"echotree/internal/ticker"
)

const (
	asciiBackspace = 8
	asciiSpace     = 32
	asciiTilde     = 126
)

// DecodeKey maps a key to a ticker token. Printable ASCII below '~' and backspace pass,
// everything else (arrows, control keys, non-ASCII) is ignored.
func DecodeKey(r rune) (ticker.Token, bool) {
	switch {
	case r == asciiBackspace:
		return ticker.BackspaceToken(), true
	case asciiSpace <= r && r < asciiTilde:
		return ticker.Char(r), true
	default:
		return ticker.Token{}, false
	}
}
