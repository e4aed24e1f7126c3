package plex

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/JackJPowell/uc-intg-plex/plex/api"
)

// SessionSource yields the active session of a single client. *Server
// implements it; the driver wraps it with lazy connection handling.
type SessionSource interface {
	ActiveSession(ctx context.Context, clientID string) (*api.SessionMetadata, error)
}

// Poller queries the session source for one client on a fixed interval and
// publishes the latest snapshot. An unreachable server is not an error: the
// cycle is skipped and a nil session is published, the next tick tries again.
type Poller struct {
	Logger *log.Entry

	source   SessionSource
	clientID string
	interval time.Duration

	// OnUpdate is called after every poll cycle with the latest session,
	// nil meaning no active session. Invoked from the poll goroutine.
	OnUpdate func(session *api.SessionMetadata)

	// OnResult is called after every cycle with the cycle outcome,
	// used for metrics. Optional.
	OnResult func(err error)

	mu      sync.Mutex
	session *api.SessionMetadata
}

func NewPoller(source SessionSource, clientID string, interval time.Duration, logger *log.Entry) *Poller {
	return &Poller{
		Logger:   logger,
		source:   source,
		clientID: clientID,
		interval: interval,
	}
}

// Session returns the last polled session, nil if the client is not playing.
func (p *Poller) Session() *api.SessionMetadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Run polls until the context is cancelled. The first poll happens
// immediately so subscribers get state without waiting a full interval.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	session, err := p.source.ActiveSession(ctx, p.clientID)
	if err != nil {
		p.Logger.WithError(err).Debug("Session poll failed, no session this cycle")
		session = nil
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()

	if p.OnResult != nil {
		p.OnResult(err)
	}
	if p.OnUpdate != nil {
		p.OnUpdate(session)
	}
}
