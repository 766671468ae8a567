package protocol

import (
	"encoding/json"
)

type TreeCommand string

const (
	TreeCommandNewRootWord TreeCommand = "newRootWord"
	TreeCommandSubscribe   TreeCommand = "subscribe"
)

// TreeRequest is sent to the tree content endpoint.
// Word is set for newRootWord; Subscriber for subscribe.
type TreeRequest struct {
	Command    TreeCommand `json:"command"`
	Submitter  string      `json:"submitter"`
	Word       string      `json:"word,omitempty"`
	Subscriber string      `json:"subscriber,omitempty"`
	TreeType   string      `json:"treeType"`
	Version    int         `json:"version"`
}

func NewRootWordRequest(submitter string, word string, treeType string) *TreeRequest {
	return &TreeRequest{
		Command:   TreeCommandNewRootWord,
		Submitter: submitter,
		Word:      word,
		TreeType:  treeType,
		Version:   Version,
	}
}

// NewSubscribeRequest asks for the trees created by creatorId to be pushed to subscriberId.
func NewSubscribeRequest(subscriberId string, creatorId string, treeType string) *TreeRequest {
	return &TreeRequest{
		Command:    TreeCommandSubscribe,
		Submitter:  creatorId,
		Subscriber: subscriberId,
		TreeType:   treeType,
		Version:    Version,
	}
}

func (r *TreeRequest) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func ParseTreeRequest(data []byte) (*TreeRequest, error) {
	var r TreeRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Command == "" || r.Submitter == "" {
		return nil, ErrMissingArgument
	}
	return &r, nil
}
