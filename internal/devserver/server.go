package devserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"

	"echotree/internal/config"
	"echotree/internal/identity"
	"echotree/internal/protocol"
)

const shutdownTimeout = 5 * time.Second

type Settings struct {
	TreeType   string
	Separator  string
	Paragraphs []Paragraph
	Corpus     *Corpus
	// swap roles with a `newAssignment` once the paragraphs run out
	SwapRoles   bool
	DisabledUrl string
	PartnerUrl  string
}

func DefaultSettings() *Settings {
	return &Settings{
		TreeType:    config.DefaultTreeType,
		Separator:   protocol.DefaultSeparator,
		Paragraphs:  ParseParagraphs(defaultParagraphs),
		Corpus:      NewCorpus(defaultCorpus),
		SwapRoles:   false,
		DisabledUrl: "/disabled.html",
		PartnerUrl:  "/partner.html",
	}
}

func (s *Settings) pageUrl(role identity.Role) string {
	if role == identity.Disabled {
		return s.DisabledUrl
	}
	return s.PartnerUrl
}

// Server is a small stand-in for the EchoTree experiment server: it pairs
// participants, relays the ticker and serves word trees from a bigram corpus.
type Server struct {
	settings   *Settings
	router     *mux.Router
	experiment *experiment
	trees      *treeHub
}

func NewServer(settings *Settings) *Server {
	s := &Server{
		settings:   settings,
		router:     mux.NewRouter(),
		experiment: newExperiment(settings),
		trees:      newTreeHub(settings.Corpus),
	}
	s.router.HandleFunc(config.ControlPath, s.serveControl)
	s.router.HandleFunc(config.TreePath, s.serveTrees)
	s.router.HandleFunc("/getAssignment", s.serveAssignment).Methods("GET")
	s.router.HandleFunc(config.EntryPath, s.serveEntry).Methods("GET")
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) serveControl(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Infof("[devserver]control upgrade error = %s\n", err)
		return
	}
	p := newPeer(conn)
	pl := s.experiment.join(p)
	p.readPump(func(message string) {
		s.experiment.handleFrame(pl, message)
	})
	s.experiment.leave(pl)
	p.close()
}

func (s *Server) serveTrees(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Infof("[devserver]tree upgrade error = %s\n", err)
		return
	}
	p := newPeer(conn)
	p.readPump(func(message string) {
		s.trees.handleRequest(p, message)
	})
	s.trees.leave(p)
	p.close()
}

// serveAssignment answers `?ownEmail=..&otherEmail=..` with the page for the assigned role.
func (s *Server) serveAssignment(w http.ResponseWriter, r *http.Request) {
	ownId := r.URL.Query().Get("ownEmail")
	otherId := r.URL.Query().Get("otherEmail")
	if ownId == "" || otherId == "" {
		http.Error(w, "ownEmail and otherEmail are required", http.StatusBadRequest)
		return
	}
	role := s.experiment.assign(ownId, otherId)
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "%s\n", s.settings.pageUrl(role))
}

func (s *Server) serveEntry(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "EchoTree experiment server. Connect with `echotree play`.\n")
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, settings *Settings) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: NewServer(settings),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()
	glog.Infof("[devserver]listening on %s\n", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
