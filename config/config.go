package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	UITypeWeb = "web"
	UITypeTUI = "tui"

	defaultServiceURL     = "http://localhost:5123"
	defaultListenAddr     = ":8080"
	defaultJournalDir     = "./wal/toggles"
	defaultRequestTimeout = 10 * time.Second
)

type Config struct {
	ServiceURL     string
	ListenAddr     string
	UI             string
	JournalDir     string
	RequestTimeout time.Duration
}

type ConfigTmp struct {
	ServiceURL     string        `yaml:"service_url"`
	ListenAddr     string        `yaml:"listen_addr,omitempty"`
	UI             string        `yaml:"ui,omitempty"`
	JournalDir     string        `yaml:"journal_dir,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// Get reads the configuration from --config yaml file or from command-line flags.
func Get() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse is Get over an explicit argument list.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("cointrack", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	serviceURL := fs.String("service", defaultServiceURL, "coin service base address, example: http://localhost:5123")
	listen := fs.String("listen", defaultListenAddr, "dashboard listen address")
	ui := fs.String("ui", UITypeWeb, "front end: web or tui")
	journal := fs.String("journal", defaultJournalDir, "toggle journal directory, empty disables the journal")
	timeout := fs.Duration("timeout", defaultRequestTimeout, "coin service request timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		return getYaml(*configPath)
	}

	return validate(Config{
		ServiceURL:     *serviceURL,
		ListenAddr:     *listen,
		UI:             *ui,
		JournalDir:     *journal,
		RequestTimeout: *timeout,
	})
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}

	c := Config{
		ServiceURL:     tmp.ServiceURL,
		ListenAddr:     tmp.ListenAddr,
		UI:             tmp.UI,
		JournalDir:     tmp.JournalDir,
		RequestTimeout: tmp.RequestTimeout,
	}
	if c.ServiceURL == "" {
		c.ServiceURL = defaultServiceURL
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.UI == "" {
		c.UI = UITypeWeb
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}

	return validate(c)
}

func validate(c Config) (Config, error) {
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("incorrect 'service_url' param: %q, must be an http(s) address", c.ServiceURL)
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")

	c.UI = strings.ToLower(c.UI)
	if c.UI != UITypeWeb && c.UI != UITypeTUI {
		return Config{}, fmt.Errorf("incorrect 'ui' param: %q, must be %s or %s", c.UI, UITypeWeb, UITypeTUI)
	}

	if c.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("incorrect 'request_timeout' param: %s, must be positive", c.RequestTimeout)
	}

	return c, nil
}
