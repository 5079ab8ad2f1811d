package login

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
	"github.com/zuxsoft/RobAccounts/pkg/store"
)

// Pool runs capture sessions concurrently, bounded by the session cap.
// Successful captures are upserted into the repository before the result is
// delivered.
type Pool struct {
	config   Config
	capturer Capturer
	repo     store.Repository
	logger   logger.Logger

	results chan Result
	wg      sync.WaitGroup

	mu     sync.Mutex
	active map[string]struct{}
	closed bool
}

// NewPool creates a capture session pool.
func NewPool(cfg Config, capturer Capturer, repo store.Repository, log logger.Logger) (*Pool, error) {
	if capturer == nil {
		return nil, ErrNilCapturer
	}
	if log == nil {
		log = logger.Default()
	}
	if cfg.MaxSessions <= 0 || cfg.MaxSessions > maxSessionCap {
		cfg.MaxSessions = maxSessionCap
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 300 * time.Second
	}

	return &Pool{
		config:   cfg,
		capturer: capturer,
		repo:     repo,
		logger:   log,
		results:  make(chan Result, maxSessionCap),
		active:   make(map[string]struct{}),
	}, nil
}

// Begin starts one capture session and returns its id. The outcome arrives
// on Results.
func (p *Pool) Begin(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", ErrPoolClosed
	}
	if len(p.active) >= p.config.MaxSessions {
		p.mu.Unlock()
		return "", fmt.Errorf("%w (%d)", ErrPoolSaturated, p.config.MaxSessions)
	}

	id := uuid.NewString()
	p.active[id] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	p.logger.Info("capture session started",
		"session_id", id,
		"timeout", p.config.SessionTimeout)

	go p.capture(ctx, id)

	return id, nil
}

// Results delivers session outcomes. The channel is buffered to the session
// cap so workers never block on a slow consumer.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Wait blocks until every running session has delivered its result.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close rejects new sessions, cancels nothing: running sessions finish (or
// time out) and deliver their results before Wait returns.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Pool) capture(ctx context.Context, id string) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.active, id)
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, p.config.SessionTimeout)
	defer cancel()

	creds, err := p.capturer.Capture(ctx)
	if err == nil {
		err = p.save(creds)
	}

	if err != nil {
		p.logger.Warn("capture session failed", "session_id", id, "error", err)
		p.results <- Result{SessionID: id, Err: err}
		return
	}

	p.logger.Info("capture session succeeded",
		"session_id", id,
		"username", creds.Username)
	p.results <- Result{SessionID: id, Credentials: creds}
}

// save upserts the captured account. A recaptured username overwrites the
// stored token, which is the point of logging in again.
func (p *Pool) save(creds *Credentials) error {
	if creds == nil || creds.Username == "" || creds.SessionToken == "" {
		return ErrEmptyCredentials
	}

	return p.repo.Add(store.Account{
		Username:     creds.Username,
		SessionToken: creds.SessionToken,
		UserID:       creds.UserID,
		Password:     creds.Password,
	})
}
