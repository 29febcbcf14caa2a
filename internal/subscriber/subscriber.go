package subscriber

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/enrollhq/leadpulse/internal/domain"
)

var (
	// ErrAlreadyRunning means Run was called on a subscriber whose previous
	// Run has not returned. One handler set per running stream.
	ErrAlreadyRunning = errors.New("subscriber already running")

	// ErrUnauthorized means the server rejected the credential. Reconnecting
	// with the same token cannot succeed, so the retry loop gives up.
	ErrUnauthorized = errors.New("subscription unauthorized")
)

const (
	defaultReconnectBaseDelay = time.Second
	defaultReconnectMaxDelay  = 30 * time.Second
)

// Handlers holds the typed callbacks for each wire event. Nil entries are
// skipped; cache invalidation and notifications run regardless.
type Handlers struct {
	Connected      func(domain.ConnectedEvent)
	NewLead        func(domain.NewLeadEvent)
	NewActivity    func(domain.NewActivityEvent)
	UserUpdate     func(domain.UserUpdateEvent)
	SettingsUpdate func(domain.SettingsUpdateEvent)
}

// Notifier surfaces OS-level notifications for events worth interrupting for.
type Notifier interface {
	Notify(title, body string)
}

// Config wires a Subscriber. BaseURL and Token are required; everything else
// has a sensible zero value.
type Config struct {
	BaseURL  string
	Token    string
	Identity domain.Identity

	Handlers Handlers
	Cache    *Cache
	Notifier Notifier

	// Attended reports whether a person is actively watching this session.
	// Lead notifications are suppressed while attended; nil means the
	// session is never attended (headless client), so they always fire.
	Attended func() bool

	HTTPClient         *http.Client
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
}

// Subscriber consumes the admin event stream and keeps local caches fresh.
type Subscriber struct {
	baseURL    string
	token      string
	self       domain.Identity
	handlers   Handlers
	cache      *Cache
	notifier   Notifier
	attended   func() bool
	httpClient *http.Client
	baseDelay  time.Duration
	maxDelay   time.Duration
	running    atomic.Bool
}

func New(cfg Config) *Subscriber {
	if cfg.HTTPClient == nil {
		// No client timeout: the stream is supposed to stay open forever.
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Cache == nil {
		cfg.Cache = NewCache()
	}
	if cfg.ReconnectBaseDelay == 0 {
		cfg.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay == 0 {
		cfg.ReconnectMaxDelay = defaultReconnectMaxDelay
	}

	return &Subscriber{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		self:       cfg.Identity,
		handlers:   cfg.Handlers,
		cache:      cfg.Cache,
		notifier:   cfg.Notifier,
		attended:   cfg.Attended,
		httpClient: cfg.HTTPClient,
		baseDelay:  cfg.ReconnectBaseDelay,
		maxDelay:   cfg.ReconnectMaxDelay,
	}
}

// Cache returns the cache this subscriber invalidates, so callers can
// register fetchers after construction.
func (s *Subscriber) Cache() *Cache {
	return s.cache
}

// Run connects and consumes the stream until ctx is canceled, reconnecting
// with backoff whenever the stream drops. It returns nil on cancellation,
// ErrUnauthorized when the credential is rejected, and ErrAlreadyRunning if
// another Run is still active.
func (s *Subscriber) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	retry := retrypolicy.Builder[any]().
		HandleIf(func(_ any, err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrUnauthorized)
		}).
		WithBackoff(s.baseDelay, s.maxDelay).
		WithMaxRetries(-1).
		OnRetry(func(e failsafe.ExecutionEvent[any]) {
			slog.Warn("event stream dropped, reconnecting", "attempt", e.Attempts(), "error", e.LastError())
		}).
		Build()

	err := failsafe.NewExecutor[any](retry).WithContext(ctx).Run(func() error {
		return s.stream(ctx)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// stream opens one connection and dispatches frames until it breaks. Every
// healthy stream lives until the server or network kills it, so a nil
// return never happens; the error says why the connection ended.
func (s *Subscriber) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dial event stream: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("event stream rejected: status %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		f, err := readFrame(reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event stream ended: %w", err)
		}
		s.dispatch(ctx, f)
	}
}

func (s *Subscriber) dispatch(ctx context.Context, f frame) {
	switch f.event {
	case domain.EventConnected:
		var ev domain.ConnectedEvent
		if !decode(f, &ev) {
			return
		}
		slog.Info("event stream established", "message", ev.Message)
		if s.handlers.Connected != nil {
			s.handlers.Connected(ev)
		}

	case domain.EventNewLead:
		var ev domain.NewLeadEvent
		if !decode(f, &ev) {
			return
		}
		s.cache.Invalidate(ctx, CacheLeads)
		if s.notifier != nil && !s.isAttended() {
			s.notifier.Notify("New admission inquiry", ev.LeadName)
		}
		if s.handlers.NewLead != nil {
			s.handlers.NewLead(ev)
		}

	case domain.EventNewActivity:
		var ev domain.NewActivityEvent
		if !decode(f, &ev) {
			return
		}
		s.cache.Invalidate(ctx, CacheActivity)
		if s.notifier != nil && shouldNotifyActivity(s.self.ID, ev) {
			s.notifier.Notify("Team activity", ev.Activity.Details)
		}
		if s.handlers.NewActivity != nil {
			s.handlers.NewActivity(ev)
		}

	case domain.EventUserUpdate:
		var ev domain.UserUpdateEvent
		if !decode(f, &ev) {
			return
		}
		s.cache.Invalidate(ctx, CacheUsers)
		if s.handlers.UserUpdate != nil {
			s.handlers.UserUpdate(ev)
		}

	case domain.EventSettingsUpdate:
		var ev domain.SettingsUpdateEvent
		if !decode(f, &ev) {
			return
		}
		s.cache.Invalidate(ctx, CacheSettings)
		if s.handlers.SettingsUpdate != nil {
			s.handlers.SettingsUpdate(ev)
		}

	default:
		slog.Debug("ignoring unknown event", "event", f.event)
	}
}

func (s *Subscriber) isAttended() bool {
	return s.attended != nil && s.attended()
}

// shouldNotifyActivity suppresses notifications for the subscriber's own
// actions. The cache invalidation still runs either way; you want your own
// list refreshed, not a popup about what you just did.
func shouldNotifyActivity(selfID int64, ev domain.NewActivityEvent) bool {
	return ev.Activity.AdminID != selfID
}

func decode(f frame, v any) bool {
	if err := json.Unmarshal([]byte(f.data), v); err != nil {
		slog.Warn("dropping malformed event payload", "event", f.event, "error", err)
		return false
	}
	return true
}
