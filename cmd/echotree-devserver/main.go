package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"echotree/internal/devserver"
	"echotree/internal/discovery"
)

const LocalVersion = "0.0.0-local"

func main() {
	usage := `EchoTree experiment server for local sessions.

Pairs a typist with a partner, relays the ticker, hands out paragraphs
and serves word trees built from a text corpus.

Usage:
    echotree-devserver [--port=<port>] [--corpus=<corpus>] [--paragraphs=<paragraphs>]
        [--tree_type=<tree_type>] [--swap_roles] [--announce]
    echotree-devserver -h | --help
    echotree-devserver --version

Options:
    -h --help                     Show this screen.
    --version                     Show version.
    -p --port=<port>              Listen port [default: 5004].
    --corpus=<corpus>             Text file the word trees are built from.
    --paragraphs=<paragraphs>     File of blank-line separated topic|text paragraphs.
    --tree_type=<tree_type>       Tree type reported to partners.
    --swap_roles                  Swap roles with a new assignment after the last paragraph.
    --announce                    Announce the server on the local network.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], LocalVersion)
	if err != nil {
		panic(err)
	}

	port, _ := opts.Int("--port")

	settings := devserver.DefaultSettings()
	if corpusAny := opts["--corpus"]; corpusAny != nil {
		text, err := os.ReadFile(corpusAny.(string))
		if err != nil {
			exit(err)
		}
		settings.Corpus = devserver.NewCorpus(string(text))
	}
	if paragraphsAny := opts["--paragraphs"]; paragraphsAny != nil {
		text, err := os.ReadFile(paragraphsAny.(string))
		if err != nil {
			exit(err)
		}
		settings.Paragraphs = devserver.ParseParagraphs(string(text))
	}
	if treeTypeAny := opts["--tree_type"]; treeTypeAny != nil {
		settings.TreeType = treeTypeAny.(string)
	}
	if swapRoles_, _ := opts.Bool("--swap_roles"); swapRoles_ {
		settings.SwapRoles = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer cancel()

	if announce_, _ := opts.Bool("--announce"); announce_ {
		if err := discovery.Register(ctx, port); err != nil {
			glog.Warningf("[main]announce failed: %s\n", err)
		}
	}

	fmt.Printf("EchoTree devserver %s on *:%d (%d paragraphs)\n", LocalVersion, port, len(settings.Paragraphs))
	if err := devserver.Serve(ctx, fmt.Sprintf(":%d", port), settings); err != nil {
		exit(err)
	}
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
