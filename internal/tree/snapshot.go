package tree

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrEmptyRoot = errors.New("snapshot has no root word")

// Snapshot is the tree as the content endpoint sends it: always fully expanded.
// A missing or empty followWordObjs denotes a leaf.
type Snapshot struct {
	Word           string     `json:"word"`
	FollowWordObjs []Snapshot `json:"followWordObjs,omitempty"`
}

func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	if strings.TrimSpace(snapshot.Word) == "" {
		return nil, ErrEmptyRoot
	}
	return &snapshot, nil
}

func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}
