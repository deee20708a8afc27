// Package browser opens materialized target URLs for the operator.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"qrprompt/internal/logging"

	"github.com/go-rod/rod/lib/launcher"
)

// Opener opens a URL outside the process.
type Opener interface {
	Open(ctx context.Context, rawURL string) error
}

// ErrInvalidURL is returned for URLs without a scheme.
var ErrInvalidURL = errors.New("invalid url")

func validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("%w: %q has no scheme", ErrInvalidURL, rawURL)
	}
	return nil
}

// SystemOpener hands the URL to a local Chrome when one is installed,
// otherwise to the system default handler.
type SystemOpener struct {
	open func(string)
}

// NewSystemOpener returns an opener backed by the rod launcher.
func NewSystemOpener() *SystemOpener {
	return &SystemOpener{open: launcher.Open}
}

// Open implements Opener. The handler runs detached; only URL validation
// can fail.
func (o *SystemOpener) Open(_ context.Context, rawURL string) error {
	if err := validate(rawURL); err != nil {
		return err
	}
	logging.Get(logging.CategoryBrowser).Infow("opening url", "length", len(rawURL))
	o.open(rawURL)
	return nil
}

// Recorder collects URLs instead of opening them. Used by --dry-run and
// tests.
type Recorder struct {
	mu   sync.Mutex
	urls []string
}

// Open implements Opener.
func (r *Recorder) Open(_ context.Context, rawURL string) error {
	if err := validate(rawURL); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, rawURL)
	return nil
}

// URLs returns the recorded URLs in order.
func (r *Recorder) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

// Last returns the last recorded URL.
func (r *Recorder) Last() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.urls) == 0 {
		return "", false
	}
	return r.urls[len(r.urls)-1], true
}
