package ticker

import (
	"strings"
	"unicode"
)

// Backspace is the wire encoding of the backspace signal.
const Backspace = "0x08"

// Token is one edit applied to the buffer: a character, a whole word, or a backspace.
type Token struct {
	Text      string
	Backspace bool
}

func Char(r rune) Token {
	return Token{Text: string(r)}
}

func Word(w string) Token {
	return Token{Text: w}
}

func BackspaceToken() Token {
	return Token{Backspace: true}
}

// ParseToken decodes a token as it travels inside an addWord frame.
func ParseToken(s string) Token {
	if s == Backspace {
		return BackspaceToken()
	}
	return Token{Text: s}
}

func (t Token) Encode() string {
	if t.Backspace {
		return Backspace
	}
	return t.Text
}

// Buffer holds the typed text as an ordered list of fragments.
// The rendered content is the concatenation of the fragments.
type Buffer struct {
	delimiter string
	words     []string
}

func NewBuffer(delimiter string) *Buffer {
	return &Buffer{
		delimiter: delimiter,
	}
}

// Apply edits the buffer and returns the new content.
// Backspace shortens the last non-empty fragment in place and never removes a fragment,
// so an emptied fragment stays behind as a placeholder.
func (b *Buffer) Apply(token Token, prependDelimiter bool) string {
	if token.Backspace {
		for i := len(b.words) - 1; 0 <= i; i-- {
			if b.words[i] == "" {
				continue
			}
			runes := []rune(b.words[i])
			b.words[i] = string(runes[:len(runes)-1])
			break
		}
	} else if prependDelimiter {
		b.words = append(b.words, b.delimiter+token.Text)
	} else {
		b.words = append(b.words, token.Text)
	}
	return b.Content()
}

func (b *Buffer) Content() string {
	return strings.Join(b.words, "")
}

// Words returns a copy of the committed fragments in display order.
func (b *Buffer) Words() []string {
	words := make([]string, len(b.words))
	copy(words, b.words)
	return words
}

// LatestCompleteWord returns the last run of word characters, ignoring trailing delimiters.
func (b *Buffer) LatestCompleteWord() (string, bool) {
	runes := []rune(b.Content())
	end := len(runes)
	for 0 < end && IsDelimiter(runes[end-1]) {
		end--
	}
	start := end
	for 0 < start && !IsDelimiter(runes[start-1]) {
		start--
	}
	if start == end {
		return "", false
	}
	return string(runes[start:end]), true
}

func (b *Buffer) Clear() {
	b.words = nil
}

// IsDelimiter reports whether r falls outside the word character class [0-9A-Za-z_].
func IsDelimiter(r rune) bool {
	if r == '_' {
		return false
	}
	if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
		return false
	}
	return true
}
