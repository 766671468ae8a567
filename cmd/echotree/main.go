package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"echotree/internal/config"
	"echotree/internal/control"
	"echotree/internal/discovery"
	"echotree/internal/identity"
	"echotree/internal/journal"
	"echotree/internal/session"
	"echotree/internal/store"
	"echotree/internal/tui"
)

const LocalVersion = "0.0.0-local"

const discoverTimeout = 5 * time.Second

func main() {
	usage := fmt.Sprintf(
		`EchoTree terminal client.

Settings come from the environment (ECHOTREE_*) after an optional dotenv file.
Flags override them. Participant ids default to the ones in the store.

The default urls are:
    control_url: %s
    tree_url: %s

Usage:
    echotree play [--env=<env>] [--role=<role>] [--self=<self>] [--peer=<peer>]
        [--control_url=<control_url>] [--tree_url=<tree_url>]
        [--tree_type=<tree_type>] [--store=<store>] [--discover]
    echotree participants set --self=<self> --peer=<peer> [--store=<store>]
    echotree participants show [--store=<store>]
    echotree journal watch <session_id> [--env=<env>]
    echotree journal show <session_id> [--env=<env>]
    echotree -h | --help
    echotree --version

Options:
    -h --help                     Show this screen.
    --version                     Show version.
    --env=<env>                   Dotenv file to load.
    --role=<role>                 disabledRole (the typist) or partnerRole.
    --self=<self>                 Own participant id.
    --peer=<peer>                 The other participant's id.
    --control_url=<control_url>
    --tree_url=<tree_url>
    --tree_type=<tree_type>
    --store=<store>               Participant store path.
    --discover                    Find an experiment server on the local network.`,
		config.DefaultControlUrl,
		config.DefaultTreeUrl,
	)

	opts, err := docopt.ParseArgs(usage, os.Args[1:], LocalVersion)
	if err != nil {
		panic(err)
	}

	if play_, _ := opts.Bool("play"); play_ {
		play(opts)
	} else if participants_, _ := opts.Bool("participants"); participants_ {
		if set_, _ := opts.Bool("set"); set_ {
			participantsSet(opts)
		} else if show_, _ := opts.Bool("show"); show_ {
			participantsShow(opts)
		}
	} else if journal_, _ := opts.Bool("journal"); journal_ {
		if watch_, _ := opts.Bool("watch"); watch_ {
			journalWatch(opts)
		} else if show_, _ := opts.Bool("show"); show_ {
			journalShow(opts)
		}
	}
}

func play(opts docopt.Opts) {
	cfg := loadConfig(opts)
	if err := applyFlags(cfg, opts); err != nil {
		exit(err)
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		exit(err)
	}
	defer st.Close()

	if cfg.SelfId == "" || cfg.PeerId == "" {
		ownId, otherId, err := st.LoadParticipants()
		if errors.Is(err, store.ErrNoParticipants) {
			exit(errors.New("no participant ids. Pass --self and --peer or run `echotree participants set`"))
		} else if err != nil {
			exit(err)
		}
		if cfg.SelfId == "" {
			cfg.SelfId = ownId
		}
		if cfg.PeerId == "" {
			cfg.PeerId = otherId
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer cancel()

	if cfg.Discover {
		hostPort, err := discovery.Browse(ctx, discoverTimeout)
		if err != nil {
			exit(err)
		}
		glog.Infof("[main]discovered experiment server at %s\n", hostPort)
		cfg.SetServer(hostPort)
	}
	if err := cfg.Validate(); err != nil {
		exit(err)
	}

	recorder := newRecorder(ctx, cfg)
	defer recorder.Close()
	fmt.Printf("session: %s\n", recorder.SessionId())

	bridge := tui.NewBridge()
	s := session.NewWithDefaults(ctx, cfg, bridge, recorder)

	type runResult struct {
		reason control.EndReason
		err    error
	}
	results := make(chan runResult, 1)
	go func() {
		reason, err := s.Run()
		results <- runResult{reason: reason, err: err}
	}()

	program := tea.NewProgram(tui.NewModel(s, bridge, cfg.Role), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	bridge.Close()

	s.Close()
	result := <-results
	if result.err != nil && !errors.Is(result.err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", result.err)
	}

	switch result.reason.Kind {
	case control.EndAssignment:
		// the next round is played with the ids of the new assignment
		id := s.Identity()
		if err := st.SaveParticipants(id.ConfiguredSelfId, id.ConfiguredPeerId); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Printf("%s\n", result.reason.Message)
		fmt.Printf("Next round: echotree play --role=%s\n", id.Role)
	default:
		if result.reason.Message != "" {
			fmt.Printf("%s\n", result.reason.Message)
		}
	}
	if result.reason.NextUrl != "" {
		fmt.Printf("next: %s\n", result.reason.NextUrl)
	}
}

func applyFlags(cfg *config.Config, opts docopt.Opts) error {
	if roleAny := opts["--role"]; roleAny != nil {
		role, err := identity.ParseRole(roleAny.(string))
		if err != nil {
			return err
		}
		cfg.Role = role
	}
	if selfAny := opts["--self"]; selfAny != nil {
		cfg.SelfId = selfAny.(string)
	}
	if peerAny := opts["--peer"]; peerAny != nil {
		cfg.PeerId = peerAny.(string)
	}
	if controlUrlAny := opts["--control_url"]; controlUrlAny != nil {
		cfg.ControlUrl = controlUrlAny.(string)
	}
	if treeUrlAny := opts["--tree_url"]; treeUrlAny != nil {
		cfg.TreeUrl = treeUrlAny.(string)
	}
	if treeTypeAny := opts["--tree_type"]; treeTypeAny != nil {
		cfg.TreeType = treeTypeAny.(string)
	}
	if storeAny := opts["--store"]; storeAny != nil {
		cfg.StorePath = storeAny.(string)
	}
	if discover_, _ := opts.Bool("--discover"); discover_ {
		cfg.Discover = true
	}
	return nil
}

// newRecorder journals to every sink that is configured. A sink that cannot
// connect is skipped.
func newRecorder(ctx context.Context, cfg *config.Config) *journal.Recorder {
	sessionId := journal.NewSessionId()
	sinks := []journal.Sink{}
	if cfg.RedisAddr != "" {
		sink, err := journal.NewRedisSink(ctx, cfg.RedisAddr, sessionId)
		if err != nil {
			glog.Warningf("[main]redis journal disabled: %s\n", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.DatabaseUrl != "" {
		sink, err := journal.NewPostgresSink(ctx, cfg.DatabaseUrl)
		if err != nil {
			glog.Warningf("[main]postgres journal disabled: %s\n", err)
		} else {
			sinks = append(sinks, sink)
		}
	}
	glog.Infof("[main]session %s with %d journal sinks\n", sessionId, len(sinks))
	return journal.NewRecorder(ctx, sessionId, sinks...)
}

func storePath(opts docopt.Opts) string {
	if storeAny := opts["--store"]; storeAny != nil {
		return storeAny.(string)
	}
	if path := os.Getenv("ECHOTREE_STORE"); path != "" {
		return path
	}
	return config.DefaultStorePath
}

func participantsSet(opts docopt.Opts) {
	st, err := store.Open(storePath(opts))
	if err != nil {
		exit(err)
	}
	defer st.Close()

	self := opts["--self"].(string)
	peer := opts["--peer"].(string)
	if err := st.SaveParticipants(self, peer); err != nil {
		exit(err)
	}
	fmt.Printf("self: %s\npeer: %s\n", self, peer)
}

func participantsShow(opts docopt.Opts) {
	st, err := store.Open(storePath(opts))
	if err != nil {
		exit(err)
	}
	defer st.Close()

	self, peer, err := st.LoadParticipants()
	if err != nil {
		exit(err)
	}
	fmt.Printf("self: %s\npeer: %s\n", self, peer)
}

func loadConfig(opts docopt.Opts) *config.Config {
	var env string
	if envAny := opts["--env"]; envAny != nil {
		env = envAny.(string)
	}
	cfg, err := config.Load(env)
	if err != nil {
		exit(err)
	}
	return cfg
}

func printEvent(event *journal.Event) {
	fmt.Printf(
		"%s %-12s %-14s %-24s %s\n",
		event.Time.Format("15:04:05.000"),
		event.Role,
		event.Kind,
		event.Participant,
		event.Data,
	)
}

func journalWatch(opts docopt.Opts) {
	cfg := loadConfig(opts)
	if cfg.RedisAddr == "" {
		exit(errors.New("no redis address. Set ECHOTREE_REDIS_ADDR or REDIS_ADDR"))
	}
	sessionId := opts["<session_id>"].(string)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("watching %s\n", journal.SessionChannel(sessionId))
	if err := journal.Watch(ctx, cfg.RedisAddr, sessionId, printEvent); err != nil {
		exit(err)
	}
}

func journalShow(opts docopt.Opts) {
	cfg := loadConfig(opts)
	if cfg.DatabaseUrl == "" {
		exit(errors.New("no database url. Set ECHOTREE_DATABASE_URL or DATABASE_URL"))
	}
	sessionId := opts["<session_id>"].(string)

	ctx := context.Background()
	sink, err := journal.NewPostgresSink(ctx, cfg.DatabaseUrl)
	if err != nil {
		exit(err)
	}
	defer sink.Close()

	events, err := sink.Events(ctx, sessionId)
	if err != nil {
		exit(err)
	}
	for _, event := range events {
		printEvent(event)
	}
	fmt.Printf("%d events\n", len(events))
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
