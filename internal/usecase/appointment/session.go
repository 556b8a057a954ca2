package appointment

import (
	"context"
	"errors"
	"sync"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
)

// ErrSuperseded is returned to a resolution whose selection was replaced
// while it was in flight.
var ErrSuperseded = errors.New("resolution superseded by a newer selection")

// Session serializes slot resolution for one surface: the last requested
// selection wins and older in-flight resolutions are cancelled.
type Session struct {
	resolver *ResolveSlots

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewSession(resolver *ResolveSlots) *Session {
	return &Session{resolver: resolver}
}

// Begin starts a new selection and cancels the one in flight. The token
// identifies the selection to Run and Deliver; call Begin in the order
// selections arrive.
func (s *Session) Begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	ctx, s.cancel = context.WithCancel(ctx)
	return ctx, s.gen
}

// Run resolves the selection identified by token.
func (s *Session) Run(
	ctx context.Context,
	token uint64,
	in domain.AvailabilityInput,
) ([]domain.SlotAvailability, error) {

	slots, err := s.resolver.Execute(ctx, in)
	if !s.current(token) {
		return nil, ErrSuperseded
	}
	return slots, err
}

// Deliver calls fn only while token is still the current selection. A newer
// selection cannot begin until fn returns, so fn must not block.
func (s *Session) Deliver(token uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		return false
	}
	fn()
	return true
}

func (s *Session) Resolve(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.SlotAvailability, error) {

	ctx, token := s.Begin(ctx)
	return s.Run(ctx, token, in)
}

func (s *Session) current(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token == s.gen
}

// Close abandons the current selection.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
