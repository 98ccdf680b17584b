// Package client is the storefront application's single shared HTTP entry
// point. It attaches the session token to outgoing requests, watches
// responses for session expiry, and suspends callers whose session died so
// that one global handler owns re-authentication.
package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSessionExpired resolves a suspended call once its session generation is
// released, either by re-authentication, by logout, or by the safety timeout.
var ErrSessionExpired = errors.New("session expired")

// DefaultSafetyTimeout bounds how long a call detected as expired stays
// suspended before it is cancelled to release its resources.
const DefaultSafetyTimeout = 5 * time.Minute

// expectedAuthFailurePaths lists the endpoints where a 401 is a normal,
// user-facing outcome and must be handed back to the caller instead of
// tripping the session. Kept minimal and explicit.
var expectedAuthFailurePaths = map[string]struct{}{
	"/auth/login":                 {},
	"/auth/passwordreset/request": {},
	"/auth/passwordreset/confirm": {},
}

type Config struct {
	BaseURL       string
	HTTPClient    *http.Client
	SafetyTimeout time.Duration
	Logger        *zap.Logger
}

// Guard is safe for concurrent use. The held token and expired flag form the
// process-wide client session; each login starts a fresh session generation
// with a re-armed expiry channel.
type Guard struct {
	baseURL       string
	httpClient    *http.Client
	safetyTimeout time.Duration
	logger        *zap.Logger

	mu        sync.Mutex
	token     string
	expired   bool
	expiredCh chan struct{}
	releaseCh chan struct{}
}

func NewGuard(cfg Config) *Guard {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	safetyTimeout := cfg.SafetyTimeout
	if safetyTimeout <= 0 {
		safetyTimeout = DefaultSafetyTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Guard{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    httpClient,
		safetyTimeout: safetyTimeout,
		logger:        logger,
		expiredCh:     make(chan struct{}),
		releaseCh:     make(chan struct{}),
	}
}

// SetToken installs the token obtained from a successful login and starts a
// new session generation. Calls suspended under the previous generation are
// released with ErrSessionExpired.
func (g *Guard) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
	g.expired = false
	g.resetGenerationLocked()
}

// Logout clears the held token without broadcasting an expiry signal.
func (g *Guard) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
	g.expired = false
	g.resetGenerationLocked()
}

func (g *Guard) resetGenerationLocked() {
	close(g.releaseCh)
	g.releaseCh = make(chan struct{})
	g.expiredCh = make(chan struct{})
}

// SessionExpired returns the channel closed when the current session is
// detected as expired. Subscribe once at startup; the channel is replaced on
// every SetToken/Logout.
func (g *Guard) SessionExpired() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expiredCh
}

// Expired reports whether the current session has been detected as expired.
func (g *Guard) Expired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expired
}

// Do runs the outbound -> network -> inbound pipeline for one request.
//
// A 401 on a non-denylisted endpoint trips the session: the expiry channel is
// closed before anything else, and the call then suspends instead of
// resolving — the caller never sees the response. The suspension is an
// intentional abandonment (the global expiry handler forces a full
// re-authentication that makes the call irrelevant) but is still cancellable:
// request context, session release, and the safety timeout each end it.
func (g *Guard) Do(req *http.Request) (*http.Response, error) {
	g.mu.Lock()
	token := g.token
	generation := g.releaseCh
	g.mu.Unlock()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// Transport failure says nothing about token validity; hand it back.
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || isExpectedAuthFailure(req.URL.Path) {
		return resp, nil
	}

	resp.Body.Close()
	g.tripExpired(generation)
	return nil, g.suspend(req.Context(), generation)
}

// Get issues a GET against the configured base URL through the pipeline.
func (g *Guard) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return g.Do(req)
}

// tripExpired broadcasts the expiry signal at most once per session
// generation. The broadcast happens before the triggering call suspends, so
// listeners observe the transition before any later call is issued.
func (g *Guard) tripExpired(generation chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.releaseCh != generation {
		// The session was replaced while this call was in flight.
		return
	}
	if g.expired {
		return
	}

	g.expired = true
	g.token = ""
	close(g.expiredCh)
	g.logger.Info("session expired, suspending call until re-authentication")
}

func (g *Guard) suspend(ctx context.Context, generation chan struct{}) error {
	timer := time.NewTimer(g.safetyTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-generation:
		return ErrSessionExpired
	case <-timer.C:
		g.logger.Warn("suspended call released by safety timeout")
		return ErrSessionExpired
	}
}

func isExpectedAuthFailure(path string) bool {
	_, ok := expectedAuthFailurePaths[path]
	return ok
}
