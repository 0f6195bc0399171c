package backend

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// Prober checks cached stream URLs before they are reused.
// http(s) URLs are probed with HEAD; file URLs must point at an existing file.
type Prober struct {
	httpClient *http.Client
}

// NewProber creates a prober with the given request timeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{httpClient: &http.Client{Timeout: timeout}}
}

// Alive reports whether url still serves content.
func (p *Prober) Alive(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	switch u.Scheme {
	case "file":
		info, err := os.Stat(u.Path)
		return err == nil && !info.IsDir()
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
		if err != nil {
			return false
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	default:
		return false
	}
}

// Verify interface implementation
var _ ports.URLProber = (*Prober)(nil)
