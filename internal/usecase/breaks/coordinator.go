package breaks

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/breakstatus"
	"github.com/BruksfildServices01/barber-booking/internal/events"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/infra/broadcast"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// Barbers resolves which shop a barber works for.
type Barbers interface {
	GetBarber(ctx context.Context, id uint) (*models.User, error)
}

type Options struct {
	// SelfApproval lets a barber go on break without an approver.
	SelfApproval bool
	// AckDelay is how long a resolved request stays visible before it is
	// removed. Zero removes it immediately.
	AckDelay time.Duration
	// ResolvedTTL expires resolved requests nobody removed.
	ResolvedTTL time.Duration
}

type Coordinator struct {
	ch      broadcast.Channel
	barbers Barbers
	opts    Options
	audit   *audit.Dispatcher
	events  events.Publisher
	log     *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewCoordinator(
	ch broadcast.Channel,
	barbers Barbers,
	opts Options,
	audit *audit.Dispatcher,
	pub events.Publisher,
	log *zap.Logger,
) *Coordinator {
	if pub == nil {
		pub = events.Noop{}
	}
	if opts.ResolvedTTL <= 0 {
		opts.ResolvedTTL = time.Minute
	}
	return &Coordinator{
		ch:      ch,
		barbers: barbers,
		opts:    opts,
		audit:   audit,
		events:  pub,
		log:     log.With(zap.String("component", "break_coordinator")),
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
	}
}

func unavailable(err error) error {
	return httperr.TransientStore("break_unavailable", err)
}

// --------------------------------------------------
// Scope
// --------------------------------------------------

// Authorize checks that who may read or change barberID's break state: the
// barber themselves or an owner of the same shop.
func (c *Coordinator) Authorize(ctx context.Context, who identity.Identity, barberID uint) error {
	if who.UserID == barberID {
		return nil
	}
	if who.Role != models.RoleOwner {
		return httperr.Forbidden("forbidden")
	}

	barber, err := c.barbers.GetBarber(ctx, barberID)
	if errors.Is(err, domain.ErrNotFound) {
		return httperr.NotFoundErr("barber_not_found")
	}
	if err != nil {
		return unavailable(err)
	}
	if !sameShop(who.ShopID, barber.ShopID) {
		return httperr.Forbidden("forbidden")
	}
	return nil
}

func sameShop(a, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

// owned loads a request and checks it belongs to who's shop.
func (c *Coordinator) owned(ctx context.Context, who identity.Identity, requestID string) (*breakstatus.Request, error) {
	req, err := c.readRequest(ctx, requestID)
	if errors.Is(err, broadcast.ErrNotFound) {
		return nil, httperr.NotFoundErr("break_request_not_found")
	}
	if err != nil {
		return nil, unavailable(err)
	}
	if !sameShop(who.ShopID, req.ShopID) {
		return nil, httperr.Forbidden("forbidden")
	}
	return req, nil
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

// CurrentStatus reconciles the stored flag with the pending queue.
// The queue is read before the flag: a resolution writes the flag before it
// releases the pending key, so a missing key always comes with a fresh flag.
func (c *Coordinator) CurrentStatus(ctx context.Context, barberID uint) (breakstatus.Status, error) {
	_, err := c.ch.Read(ctx, breakstatus.PendingKey(barberID))
	hasPending := err == nil
	if err != nil && !errors.Is(err, broadcast.ErrNotFound) {
		return "", unavailable(err)
	}

	state, err := c.readState(ctx, barberID)
	if err != nil {
		return "", unavailable(err)
	}
	return breakstatus.Reconcile(state.Status, hasPending), nil
}

// PendingRequests lists the shop's requests waiting for an approver, oldest
// first.
func (c *Coordinator) PendingRequests(ctx context.Context, shopID uint) ([]breakstatus.Request, error) {
	keys, err := c.ch.Keys(ctx, breakstatus.PendingPrefix)
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]breakstatus.Request, 0, len(keys))
	for _, key := range keys {
		id, err := c.ch.Read(ctx, key)
		if errors.Is(err, broadcast.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, unavailable(err)
		}

		req, err := c.readRequest(ctx, string(id))
		if errors.Is(err, broadcast.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, unavailable(err)
		}
		if req.Pending() && req.InShop(shopID) {
			out = append(out, *req)
		}
	}

	sortRequests(out)
	return out, nil
}

// ActiveRequests lists the shop's pending requests plus resolved ones not yet
// removed.
func (c *Coordinator) ActiveRequests(ctx context.Context, shopID uint) ([]breakstatus.Request, error) {
	keys, err := c.ch.Keys(ctx, breakstatus.RequestPrefix)
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]breakstatus.Request, 0, len(keys))
	for _, key := range keys {
		b, err := c.ch.Read(ctx, key)
		if errors.Is(err, broadcast.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, unavailable(err)
		}
		var req breakstatus.Request
		if err := json.Unmarshal(b, &req); err != nil {
			c.log.Warn("skipping malformed break request", zap.String("key", key), zap.Error(err))
			continue
		}
		if req.InShop(shopID) {
			out = append(out, req)
		}
	}

	sortRequests(out)
	return out, nil
}

// --------------------------------------------------
// Barber actions
// --------------------------------------------------

// RequestBreak queues a request, or puts the barber straight on break when
// self-approval is enabled. The request is nil in that case.
func (c *Coordinator) RequestBreak(
	ctx context.Context,
	who identity.Identity,
	durationMinutes int,
) (*breakstatus.Request, breakstatus.Status, error) {

	barberID := who.UserID

	if durationMinutes <= 0 {
		return nil, "", httperr.Validation("invalid_duration")
	}

	current, err := c.CurrentStatus(ctx, barberID)
	if err != nil {
		return nil, "", err
	}
	if err := blockedFrom(current); err != nil {
		return nil, current, err
	}

	now := c.now()

	if c.opts.SelfApproval {
		if err := c.writeState(ctx, barberID, breakstatus.StatusOnBreak, breakEnd(now, durationMinutes)); err != nil {
			return nil, "", unavailable(err)
		}
		c.record(barberID, "break_started", "", nil)
		return nil, breakstatus.StatusOnBreak, nil
	}

	req := &breakstatus.Request{
		ID:              uuid.NewString(),
		BarberID:        barberID,
		BarberName:      who.Name,
		ShopID:          who.ShopID,
		RequestedAt:     now,
		DurationMinutes: durationMinutes,
		Status:          breakstatus.RequestPending,
	}

	ok, err := c.ch.WriteIfAbsent(ctx, breakstatus.PendingKey(barberID), []byte(req.ID))
	if err != nil {
		return nil, "", unavailable(err)
	}
	if !ok {
		return nil, breakstatus.StatusBreakRequested, httperr.Conflict("break_already_pending")
	}

	// flag before request: nobody can resolve a request they cannot read yet
	if err := c.writeState(ctx, barberID, breakstatus.StatusBreakRequested, nil); err != nil {
		// the pending key alone already reads as break_requested
		c.log.Warn("status flag not written", zap.Uint("barber_id", barberID), zap.Error(err))
	}

	if err := c.writeRequest(ctx, req, 0); err != nil {
		_, _ = c.ch.DeleteIfValue(ctx, breakstatus.PendingKey(barberID), []byte(req.ID))
		return nil, "", unavailable(err)
	}

	c.record(barberID, "break_requested", req.ID, req)
	c.events.Publish(events.New(events.BreakRequested, map[string]any{
		"request_id":       req.ID,
		"barber_id":        barberID,
		"duration_minutes": durationMinutes,
	}))

	return req, breakstatus.StatusBreakRequested, nil
}

// CancelOwnRequest withdraws the barber's pending request.
func (c *Coordinator) CancelOwnRequest(ctx context.Context, barberID uint) error {
	id, err := c.ch.Read(ctx, breakstatus.PendingKey(barberID))
	if errors.Is(err, broadcast.ErrNotFound) {
		return httperr.NotFoundErr("break_request_not_found")
	}
	if err != nil {
		return unavailable(err)
	}

	claimed, err := c.claim(ctx, string(id))
	if err != nil {
		return unavailable(err)
	}
	if !claimed {
		return httperr.Conflict("already_resolved")
	}

	if _, err := c.ch.DeleteIfValue(ctx, breakstatus.PendingKey(barberID), id); err != nil {
		return unavailable(err)
	}
	if err := c.ch.Delete(ctx, breakstatus.RequestKey(string(id))); err != nil {
		c.log.Warn("cancelled request not removed", zap.String("request_id", string(id)), zap.Error(err))
	}
	if err := c.writeState(ctx, barberID, breakstatus.StatusAvailable, nil); err != nil {
		return unavailable(err)
	}

	c.record(barberID, "break_request_cancelled", string(id), nil)
	return nil
}

func (c *Coordinator) EndBreak(ctx context.Context, barberID uint) error {
	current, err := c.CurrentStatus(ctx, barberID)
	if err != nil {
		return err
	}
	if current != breakstatus.StatusOnBreak {
		return httperr.Conflict("not_on_break")
	}

	if err := c.writeState(ctx, barberID, breakstatus.StatusAvailable, nil); err != nil {
		return unavailable(err)
	}
	c.record(barberID, "break_ended", "", nil)
	return nil
}

// SetBusy sets or clears the externally imposed busy flag. Going busy
// withdraws a pending request; clearing only affects a busy barber.
func (c *Coordinator) SetBusy(
	ctx context.Context,
	who identity.Identity,
	barberID uint,
	busy bool,
) (breakstatus.Status, error) {

	if err := c.Authorize(ctx, who, barberID); err != nil {
		return "", err
	}

	if !busy {
		current, err := c.CurrentStatus(ctx, barberID)
		if err != nil {
			return "", err
		}
		if current != breakstatus.StatusBusy {
			return current, nil
		}
		if err := c.writeState(ctx, barberID, breakstatus.StatusAvailable, nil); err != nil {
			return "", unavailable(err)
		}
		return breakstatus.StatusAvailable, nil
	}

	err := c.CancelOwnRequest(ctx, barberID)
	if err != nil && !httperr.IsKind(err, httperr.KindNotFound) && !httperr.IsKind(err, httperr.KindConflict) {
		return "", err
	}

	if err := c.writeState(ctx, barberID, breakstatus.StatusBusy, nil); err != nil {
		return "", unavailable(err)
	}
	return breakstatus.StatusBusy, nil
}

// --------------------------------------------------
// Approver actions
// --------------------------------------------------

func (c *Coordinator) Approve(ctx context.Context, who identity.Identity, requestID string) (*breakstatus.Request, error) {
	return c.resolve(ctx, who, requestID, breakstatus.RequestApproved)
}

func (c *Coordinator) Deny(ctx context.Context, who identity.Identity, requestID string) (*breakstatus.Request, error) {
	return c.resolve(ctx, who, requestID, breakstatus.RequestDenied)
}

// Acknowledge removes a resolved request before its delay runs out.
func (c *Coordinator) Acknowledge(ctx context.Context, who identity.Identity, requestID string) error {
	req, err := c.owned(ctx, who, requestID)
	if err != nil {
		return err
	}
	if req.Pending() {
		return httperr.Conflict("break_not_resolved")
	}

	c.stopTimer(requestID)
	if err := c.ch.Delete(ctx, breakstatus.RequestKey(requestID)); err != nil {
		return unavailable(err)
	}
	return nil
}

// resolve claims the request, so of two concurrent approvers (or an approver
// and the withdrawing barber) only one wins. The pending key is released
// last, after the new flag is stored.
func (c *Coordinator) resolve(
	ctx context.Context,
	who identity.Identity,
	requestID string,
	outcome breakstatus.RequestStatus,
) (*breakstatus.Request, error) {

	req, err := c.owned(ctx, who, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Pending() {
		return nil, httperr.Conflict("already_resolved")
	}

	claimed, err := c.claim(ctx, req.ID)
	if err != nil {
		return nil, unavailable(err)
	}
	if !claimed {
		return nil, httperr.Conflict("already_resolved")
	}

	now := c.now()
	req.Status = outcome
	req.ResolvedAt = &now

	if err := c.writeRequest(ctx, req, c.opts.ResolvedTTL); err != nil {
		c.log.Warn("resolved request not written", zap.String("request_id", req.ID), zap.Error(err))
	}

	next, ends, eventType := breakstatus.StatusAvailable, (*time.Time)(nil), events.BreakDenied
	if outcome == breakstatus.RequestApproved {
		next, ends, eventType = breakstatus.StatusOnBreak, breakEnd(now, req.DurationMinutes), events.BreakApproved
	}
	stateErr := c.writeState(ctx, req.BarberID, next, ends)

	if _, err := c.ch.DeleteIfValue(ctx, breakstatus.PendingKey(req.BarberID), []byte(req.ID)); err != nil {
		return nil, unavailable(err)
	}
	if stateErr != nil {
		return nil, unavailable(stateErr)
	}

	c.scheduleRemoval(req.ID)

	c.record(req.BarberID, "break_"+string(outcome), req.ID, nil)
	c.events.Publish(events.New(eventType, map[string]any{
		"request_id": req.ID,
		"barber_id":  req.BarberID,
	}))

	return req, nil
}

// --------------------------------------------------
// Removal after acknowledgment delay
// --------------------------------------------------

func (c *Coordinator) scheduleRemoval(requestID string) {
	remove := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.ch.Delete(ctx, breakstatus.RequestKey(requestID)); err != nil {
			c.log.Warn("resolved request not removed", zap.String("request_id", requestID), zap.Error(err))
		}
	}

	if c.opts.AckDelay <= 0 {
		remove()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[requestID] = time.AfterFunc(c.opts.AckDelay, func() {
		c.mu.Lock()
		delete(c.timers, requestID)
		c.mu.Unlock()
		remove()
	})
}

func (c *Coordinator) stopTimer(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[requestID]; ok {
		t.Stop()
		delete(c.timers, requestID)
	}
}

// Close stops pending removals. Resolved requests left behind expire through
// their TTL.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

// --------------------------------------------------
// Helpers
// --------------------------------------------------

func blockedFrom(current breakstatus.Status) error {
	switch current {
	case breakstatus.StatusBusy:
		return httperr.Conflict("barber_busy")
	case breakstatus.StatusOnBreak:
		return httperr.Conflict("already_on_break")
	case breakstatus.StatusBreakRequested:
		return httperr.Conflict("break_already_pending")
	}
	return nil
}

func breakEnd(start time.Time, minutes int) *time.Time {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return &end
}

func sortRequests(reqs []breakstatus.Request) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].RequestedAt.Before(reqs[j].RequestedAt)
	})
}

// claim marks request id as taken. Only the first caller gets true.
func (c *Coordinator) claim(ctx context.Context, id string) (bool, error) {
	key := breakstatus.ClaimKey(id)
	ok, err := c.ch.WriteIfAbsent(ctx, key, []byte(id))
	if err != nil || !ok {
		return false, err
	}
	if err := c.ch.Write(ctx, key, []byte(id), c.opts.ResolvedTTL); err != nil {
		c.log.Warn("claim expiry not set", zap.String("request_id", id), zap.Error(err))
	}
	return true, nil
}

func (c *Coordinator) readState(ctx context.Context, barberID uint) (breakstatus.State, error) {
	b, err := c.ch.Read(ctx, breakstatus.StatusKey(barberID))
	if errors.Is(err, broadcast.ErrNotFound) {
		return breakstatus.State{BarberID: barberID, Status: breakstatus.StatusAvailable}, nil
	}
	if err != nil {
		return breakstatus.State{}, err
	}

	var state breakstatus.State
	if err := json.Unmarshal(b, &state); err != nil {
		// unreadable flag: the queue still decides break_requested
		c.log.Warn("malformed status flag", zap.Uint("barber_id", barberID), zap.Error(err))
		return breakstatus.State{BarberID: barberID, Status: breakstatus.StatusAvailable}, nil
	}
	return state, nil
}

func (c *Coordinator) writeState(ctx context.Context, barberID uint, status breakstatus.Status, ends *time.Time) error {
	b, err := json.Marshal(breakstatus.State{
		BarberID:    barberID,
		Status:      status,
		BreakEndsAt: ends,
		UpdatedAt:   c.now(),
	})
	if err != nil {
		return err
	}
	return c.ch.Write(ctx, breakstatus.StatusKey(barberID), b, 0)
}

// State returns the stored flag reconciled with the queue, including when a
// running break is due to end.
func (c *Coordinator) State(ctx context.Context, barberID uint) (breakstatus.State, error) {
	state, err := c.readState(ctx, barberID)
	if err != nil {
		return breakstatus.State{}, unavailable(err)
	}
	status, err := c.CurrentStatus(ctx, barberID)
	if err != nil {
		return breakstatus.State{}, err
	}
	state.BarberID = barberID
	state.Status = status
	if status != breakstatus.StatusOnBreak {
		state.BreakEndsAt = nil
	}
	return state, nil
}

func (c *Coordinator) readRequest(ctx context.Context, id string) (*breakstatus.Request, error) {
	b, err := c.ch.Read(ctx, breakstatus.RequestKey(id))
	if err != nil {
		return nil, err
	}
	var req breakstatus.Request
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *Coordinator) writeRequest(ctx context.Context, req *breakstatus.Request, ttl time.Duration) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.ch.Write(ctx, breakstatus.RequestKey(req.ID), b, ttl)
}

func (c *Coordinator) record(barberID uint, action, requestID string, meta any) {
	c.audit.Dispatch(audit.Event{
		UserID:   &barberID,
		Action:   action,
		Entity:   "break",
		EntityID: requestID,
		Metadata: meta,
	})
	c.log.Debug("break state changed",
		zap.Uint("barber_id", barberID),
		zap.String("action", action),
		zap.String("request_id", requestID),
	)
}
