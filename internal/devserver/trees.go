package devserver

import (
	"sync"

	"github.com/golang/glog"

	"echotree/internal/protocol"
)

// treeHub serves word trees. Each tree goes to its submitter and to everyone
// subscribed to the submitter.
type treeHub struct {
	corpus *Corpus

	stateLock   sync.Mutex
	peers       map[string]*peer
	subscribers map[string]map[string]bool
}

func newTreeHub(corpus *Corpus) *treeHub {
	return &treeHub{
		corpus:      corpus,
		peers:       map[string]*peer{},
		subscribers: map[string]map[string]bool{},
	}
}

func (h *treeHub) register(id string, p *peer) {
	if id != "" {
		h.peers[id] = p
	}
}

func (h *treeHub) handleRequest(p *peer, raw string) {
	request, err := protocol.ParseTreeRequest([]byte(raw))
	if err != nil {
		glog.Infof("[devserver]ill-formed tree request %q: %s\n", raw, err)
		return
	}

	h.stateLock.Lock()
	defer h.stateLock.Unlock()

	switch request.Command {
	case protocol.TreeCommandNewRootWord:
		h.register(request.Submitter, p)
		snapshot := h.corpus.Tree(request.Word, TreeBreadth, TreeDepth)
		data, err := snapshot.Encode()
		if err != nil {
			return
		}
		p.write(string(data))
		for subscriber := range h.subscribers[request.Submitter] {
			if sp, ok := h.peers[subscriber]; ok && sp != p {
				sp.write(string(data))
			}
		}
	case protocol.TreeCommandSubscribe:
		h.register(request.Subscriber, p)
		subscribers, ok := h.subscribers[request.Submitter]
		if !ok {
			subscribers = map[string]bool{}
			h.subscribers[request.Submitter] = subscribers
		}
		subscribers[request.Subscriber] = true
	}
}

func (h *treeHub) leave(p *peer) {
	h.stateLock.Lock()
	defer h.stateLock.Unlock()
	for id, registered := range h.peers {
		if registered == p {
			delete(h.peers, id)
		}
	}
}
