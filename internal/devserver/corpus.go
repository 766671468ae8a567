package devserver

import (
	"sort"
	"strings"
	"unicode"

	"echotree/internal/tree"
)

const (
	TreeBreadth = 5
	TreeDepth   = 3
)

// Corpus is a bigram follower index: for every word, the words that follow it
// ordered by decreasing frequency.
type Corpus struct {
	followers map[string][]string
}

func NewCorpus(text string) *Corpus {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	counts := map[string]map[string]int{}
	for i := 0; i+1 < len(words); i++ {
		m, ok := counts[words[i]]
		if !ok {
			m = map[string]int{}
			counts[words[i]] = m
		}
		m[words[i+1]]++
	}

	followers := map[string][]string{}
	for word, m := range counts {
		fs := make([]string, 0, len(m))
		for f := range m {
			fs = append(fs, f)
		}
		sort.Slice(fs, func(i, j int) bool {
			if m[fs[i]] != m[fs[j]] {
				return m[fs[i]] > m[fs[j]]
			}
			return fs[i] < fs[j]
		})
		followers[word] = fs
	}
	return &Corpus{followers: followers}
}

func (c *Corpus) Followers(word string) []string {
	return c.followers[strings.ToLower(word)]
}

// Tree builds the fully expanded tree the content endpoint sends.
func (c *Corpus) Tree(root string, breadth int, depth int) *tree.Snapshot {
	snapshot := &tree.Snapshot{Word: root}
	c.grow(snapshot, breadth, depth-1)
	return snapshot
}

func (c *Corpus) grow(node *tree.Snapshot, breadth int, depth int) {
	if depth <= 0 {
		return
	}
	followers := c.Followers(node.Word)
	if breadth < len(followers) {
		followers = followers[:breadth]
	}
	for _, f := range followers {
		child := tree.Snapshot{Word: f}
		c.grow(&child, breadth, depth-1)
		node.FollowWordObjs = append(node.FollowWordObjs, child)
	}
}
