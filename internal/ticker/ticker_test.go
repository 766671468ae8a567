package ticker

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestBackspaceShortensLastWord(t *testing.T) {
	b := NewBuffer(" ")
	b.Apply(Char('h'), false)
	b.Apply(Char('i'), false)
	b.Apply(BackspaceToken(), false)
	content := b.Apply(Char('!'), false)
	assert.Equal(t, content, "h!")
}

func TestBackspaceLeavesPlaceholder(t *testing.T) {
	b := NewBuffer(" ")
	b.Apply(Word("cat"), false)
	b.Apply(Char('s'), false)
	b.Apply(BackspaceToken(), false)
	assert.Equal(t, b.Words(), []string{"cat", ""})

	// further backspaces reach into earlier fragments
	content := b.Apply(BackspaceToken(), false)
	assert.Equal(t, content, "ca")
	assert.Equal(t, len(b.Words()), 2)
}

func TestBackspaceOnEmpty(t *testing.T) {
	b := NewBuffer(" ")
	assert.Equal(t, b.Apply(BackspaceToken(), false), "")
	assert.Equal(t, len(b.Words()), 0)
}

func TestPrependDelimiter(t *testing.T) {
	b := NewBuffer(" ")
	b.Apply(Word("the"), false)
	content := b.Apply(Word("dog"), true)
	assert.Equal(t, content, "the dog")
}

func TestLatestCompleteWord(t *testing.T) {
	b := NewBuffer(" ")
	_, ok := b.LatestCompleteWord()
	assert.Equal(t, ok, false)

	for _, r := range "my cat  " {
		b.Apply(Char(r), false)
	}
	word, ok := b.LatestCompleteWord()
	assert.Equal(t, ok, true)
	assert.Equal(t, word, "cat")

	b.Clear()
	b.Apply(Word(" ,. "), false)
	_, ok = b.LatestCompleteWord()
	assert.Equal(t, ok, false)
}

func TestParseToken(t *testing.T) {
	assert.Equal(t, ParseToken("0x08").Backspace, true)
	assert.Equal(t, ParseToken("a"), Char('a'))
	assert.Equal(t, BackspaceToken().Encode(), Backspace)
	assert.Equal(t, Word("tree").Encode(), "tree")
}

func TestIsDelimiter(t *testing.T) {
	for _, r := range " .,!?-'" {
		assert.Equal(t, IsDelimiter(r), true)
	}
	for _, r := range "aZ09_" {
		assert.Equal(t, IsDelimiter(r), false)
	}
}
