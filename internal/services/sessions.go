package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopdesk/internal/cart"
	"shopdesk/internal/checkout"
	"shopdesk/internal/domain"
	applog "shopdesk/internal/log"
)

// Session is the signed-in context of one staff member: who they are,
// which business they act for and their register.
type Session struct {
	ID       string
	User     domain.User
	Business domain.Business
	Register *checkout.Register

	seen time.Time // guarded by Sessions.mu
}

// Sessions holds live sessions in memory, keyed by the sid cookie.
type Sessions struct {
	mu         sync.Mutex
	byID       map[string]*Session
	deps       checkout.Deps
	defaultTax decimal.Decimal
}

func NewSessions(deps checkout.Deps, defaultTax decimal.Decimal) *Sessions {
	return &Sessions{byID: map[string]*Session{}, deps: deps, defaultTax: defaultTax}
}

func (s *Sessions) newSession(sid string, u domain.User, b domain.Business) *Session {
	return &Session{
		ID:       sid,
		User:     u,
		Business: b,
		Register: checkout.NewRegister(b.ID, cart.New(s.defaultTax), s.deps),
		seen:     time.Now(),
	}
}

// Start creates a fresh session, replacing any previous one for sid.
func (s *Sessions) Start(sid string, u domain.User, b domain.Business) *Session {
	sess := s.newSession(sid, u, b)
	s.mu.Lock()
	s.byID[sid] = sess
	s.mu.Unlock()
	return sess
}

// Ensure returns the live session for sid if it belongs to u, or starts one.
func (s *Sessions) Ensure(sid string, u domain.User, b domain.Business) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byID[sid]; ok && sess.User.ID == u.ID {
		sess.seen = time.Now()
		return sess
	}
	sess := s.newSession(sid, u, b)
	s.byID[sid] = sess
	return sess
}

func (s *Sessions) Get(sid string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[sid]
	if ok {
		sess.seen = time.Now()
	}
	return sess, ok
}

func (s *Sessions) End(sid string) {
	s.mu.Lock()
	delete(s.byID, sid)
	s.mu.Unlock()
}

// Sweep drops sessions not used since cutoff, along with their carts. A
// register in the middle of a commit is kept. The sid stays bound, so a
// returning user gets an empty register.
func (s *Sessions) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, sess := range s.byID {
		if !sess.seen.Before(cutoff) {
			continue
		}
		if st := sess.Register.State(); st == checkout.Validating || st == checkout.Committing {
			continue
		}
		delete(s.byID, sid)
		n++
	}
	return n
}

// Expire sweeps sessions idle for longer than idle every interval until ctx
// is done.
func (s *Sessions) Expire(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Sweep(now.Add(-idle)); n > 0 {
				applog.L().Info("idle sessions dropped", zap.Int("count", n))
			}
		}
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// BranchID is the branch currently selected on the register.
func (s *Session) BranchID() string {
	var id string
	s.Register.View(func(c *cart.Cart, _ checkout.State) { id = c.Fields().BranchID })
	return id
}
