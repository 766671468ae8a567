package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/joho/godotenv"

	"echotree/internal/identity"
	"echotree/internal/protocol"
)

const (
	DefaultControlUrl = "ws://localhost:5004/echo_tree_experiment"
	DefaultTreeUrl    = "ws://localhost:5004/subscribe_to_echo_trees"
	DefaultEntryUrl   = "http://localhost:5004/index.html"
	DefaultTreeType   = "dmozRecreation"
	DefaultDelimiter  = " "
	DefaultStorePath  = "echotree.db"

	ControlPath = "/echo_tree_experiment"
	TreePath    = "/subscribe_to_echo_trees"
	EntryPath   = "/index.html"
)

type Config struct {
	ControlUrl string
	TreeUrl    string
	// page the participant is sent back to when the session breaks
	EntryUrl string

	Role   identity.Role
	SelfId string
	PeerId string

	WordDelimiter string
	Separator     string
	TreeType      string

	StorePath   string
	RedisAddr   string
	DatabaseUrl string
	Discover    bool
}

func Default() *Config {
	return &Config{
		ControlUrl:    DefaultControlUrl,
		TreeUrl:       DefaultTreeUrl,
		EntryUrl:      DefaultEntryUrl,
		Role:          identity.Disabled,
		WordDelimiter: DefaultDelimiter,
		Separator:     protocol.DefaultSeparator,
		TreeType:      DefaultTreeType,
		StorePath:     DefaultStorePath,
	}
}

// Load reads an optional dotenv file and then the environment.
// A missing file is not an error when path is empty (".env" is tried).
func Load(path string) (*Config, error) {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := godotenv.Load(path); err != nil {
		return nil, err
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	c := Default()
	c.ControlUrl = getenv("ECHOTREE_CONTROL_URL", c.ControlUrl)
	c.TreeUrl = getenv("ECHOTREE_TREE_URL", c.TreeUrl)
	c.EntryUrl = getenv("ECHOTREE_ENTRY_URL", c.EntryUrl)
	c.SelfId = os.Getenv("ECHOTREE_SELF_ID")
	c.PeerId = os.Getenv("ECHOTREE_PEER_ID")
	c.WordDelimiter = getenv("ECHOTREE_WORD_DELIMITER", c.WordDelimiter)
	c.Separator = getenv("ECHOTREE_SEPARATOR", c.Separator)
	c.TreeType = getenv("ECHOTREE_TREE_TYPE", c.TreeType)
	c.StorePath = getenv("ECHOTREE_STORE", c.StorePath)
	c.RedisAddr = getenv("ECHOTREE_REDIS_ADDR", os.Getenv("REDIS_ADDR"))
	c.DatabaseUrl = getenv("ECHOTREE_DATABASE_URL", os.Getenv("DATABASE_URL"))

	if role := os.Getenv("ECHOTREE_ROLE"); role != "" {
		r, err := identity.ParseRole(role)
		if err != nil {
			return nil, err
		}
		c.Role = r
	}
	if discover := os.Getenv("ECHOTREE_DISCOVER"); discover != "" {
		b, err := strconv.ParseBool(discover)
		if err != nil {
			return nil, fmt.Errorf("ECHOTREE_DISCOVER: %w", err)
		}
		c.Discover = b
	}
	return c, nil
}

func getenv(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.WordDelimiter) != 1 {
		return fmt.Errorf("word delimiter must be one character, got %q", c.WordDelimiter)
	}
	if utf8.RuneCountInString(c.Separator) != 1 {
		return fmt.Errorf("separator must be one character, got %q", c.Separator)
	}
	if c.Separator == protocol.FieldSeparator {
		return fmt.Errorf("separator cannot be %q", protocol.FieldSeparator)
	}
	for _, u := range []string{c.ControlUrl, c.TreeUrl} {
		parsed, err := url.Parse(u)
		if err != nil {
			return err
		}
		if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
			return fmt.Errorf("%s is not a websocket url", u)
		}
	}
	switch c.Role {
	case identity.Disabled, identity.Partner:
	default:
		return fmt.Errorf("unknown role %s", c.Role)
	}
	return nil
}

// SetServer points all endpoints at one experiment server, e.g. a discovered one.
func (c *Config) SetServer(hostPort string) {
	c.ControlUrl = "ws://" + hostPort + ControlPath
	c.TreeUrl = "ws://" + hostPort + TreePath
	c.EntryUrl = "http://" + hostPort + EntryPath
}
