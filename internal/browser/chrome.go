package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"qrprompt/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Config selects and tunes the opener.
type Config struct {
	Mode        string   `yaml:"mode"`                   // system, chrome
	DebuggerURL string   `yaml:"debugger_url,omitempty"` // attach to a running Chrome
	Launch      []string `yaml:"launch,omitempty"`       // binary followed by --flags
	Headless    bool     `yaml:"headless"`
}

// DefaultConfig opens through the system handler.
func DefaultConfig() Config {
	return Config{Mode: "system"}
}

// New returns the opener for cfg.Mode.
func New(cfg Config) (Opener, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", "system":
		return NewSystemOpener(), nil
	case "chrome":
		return NewChromeOpener(cfg), nil
	default:
		return nil, fmt.Errorf("unknown browser mode %q (valid: system, chrome)", cfg.Mode)
	}
}

// ChromeOpener keeps one controlled Chrome and opens every URL in a new tab
// of it. The browser is started on first use.
type ChromeOpener struct {
	mu         sync.Mutex
	cfg        Config
	browser    *rod.Browser
	controlURL string
}

// NewChromeOpener creates an opener that has not started Chrome yet.
func NewChromeOpener(cfg Config) *ChromeOpener {
	return &ChromeOpener{cfg: cfg}
}

// Start connects to an existing Chrome or launches a new one.
func (o *ChromeOpener) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.startLocked(ctx)
}

func (o *ChromeOpener) startLocked(ctx context.Context) error {
	if o.browser != nil {
		if _, err := o.browser.Version(); err == nil {
			return nil
		}
		logging.Get(logging.CategoryBrowser).Warn("stale browser connection, reconnecting")
		_ = o.browser.Close()
		o.browser = nil
		o.controlURL = ""
	}

	controlURL := o.cfg.DebuggerURL
	if controlURL == "" {
		l := o.launcher()
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	o.browser = b
	o.controlURL = controlURL
	logging.Get(logging.CategoryBrowser).Infow("chrome connected", "control_url", controlURL)
	return nil
}

func (o *ChromeOpener) launcher() *launcher.Launcher {
	// opened tabs outlive the qrprompt process
	l := launcher.New().Headless(o.cfg.Headless).Leakless(false)
	if len(o.cfg.Launch) == 0 {
		return l
	}
	l = l.Bin(o.cfg.Launch[0])
	for _, rawFlag := range o.cfg.Launch[1:] {
		name, val, hasVal := strings.Cut(strings.TrimLeft(rawFlag, "-"), "=")
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// Open implements Opener.
func (o *ChromeOpener) Open(ctx context.Context, rawURL string) error {
	if err := validate(rawURL); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.startLocked(ctx); err != nil {
		return err
	}
	if _, err := o.browser.Page(proto.TargetCreateTarget{URL: rawURL}); err != nil {
		return fmt.Errorf("open tab: %w", err)
	}
	return nil
}

// ControlURL returns the DevTools websocket URL, "" before Start.
func (o *ChromeOpener) ControlURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.controlURL
}

// Shutdown closes the controlled browser.
func (o *ChromeOpener) Shutdown() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var err error
	if o.browser != nil {
		err = o.browser.Close()
		o.browser = nil
	}
	o.controlURL = ""
	return err
}
