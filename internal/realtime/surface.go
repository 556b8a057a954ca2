package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/breakstatus"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/identity"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	ucappt "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/usecase/breaks"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS layer
	},
}

// Services are the use cases a surface can drive.
type Services struct {
	Resolve *ucappt.ResolveSlots
	Tracker *ucappt.Tracker
	Breaks  *breaks.Coordinator
	Watcher *breaks.Watcher
}

type Surface struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	who  identity.Identity
	svc  Services
	log  *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	session *ucappt.Session

	mu      sync.Mutex
	watches map[string]context.CancelFunc
	once    sync.Once
}

// Serve upgrades the request and runs the surface until the peer leaves.
func Serve(hub *Hub, svc Services, w http.ResponseWriter, r *http.Request, who identity.Identity) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Surface{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		who:     who,
		svc:     svc,
		log:     hub.log.With(zap.Uint("user_id", who.UserID)),
		ctx:     ctx,
		cancel:  cancel,
		session: ucappt.NewSession(svc.Resolve),
		watches: make(map[string]context.CancelFunc),
	}

	hub.register(s)

	go s.writePump()
	go s.readPump()
}

// Close stops every watch and the connection.
func (s *Surface) Close() {
	s.once.Do(func() {
		s.cancel()
		s.session.Close()
		s.hub.unregister(s)
		_ = s.conn.Close()
	})
}

// --------------------------------------------------
// Pumps
// --------------------------------------------------

func (s *Surface) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.fail("", httperr.Validation("invalid_input"))
			continue
		}
		s.handle(msg)
	}
}

func (s *Surface) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push queues a message. A surface that cannot keep up loses messages; every
// watch re-sends full state on its next change.
func (s *Surface) push(out Outbound) {
	out.Timestamp = time.Now()
	b, err := json.Marshal(out)
	if err != nil {
		s.log.Error("marshal outbound", zap.String("type", out.Type), zap.Error(err))
		return
	}

	select {
	case <-s.ctx.Done():
	case s.send <- b:
	default:
		s.log.Warn("send buffer full, dropping message", zap.String("type", out.Type))
	}
}

func (s *Surface) fail(requestID string, err error) {
	s.push(Outbound{Type: TypeError, RequestID: requestID, Error: errorPayload(err)})
}

// --------------------------------------------------
// Dispatch
// --------------------------------------------------

func (s *Surface) handle(msg Inbound) {
	switch msg.Type {
	case TypePing:
		s.push(Outbound{Type: TypePong, RequestID: msg.RequestID})
	case TypeResolveSlots:
		s.resolveSlots(msg)
	case TypeWatchSchedule:
		s.watchSchedule(msg)
	case TypeWatchBreakStatus:
		s.watchBreakStatus(msg)
	case TypeWatchBreakQueue:
		s.watchBreakQueue(msg)
	case TypeUnwatch:
		var data unwatchData
		if err := decode(msg.Data, &data); err != nil {
			s.fail(msg.RequestID, err)
			return
		}
		s.stop(data.Topic)
	default:
		s.fail(msg.RequestID, httperr.Validation("invalid_input"))
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return httperr.Validation("invalid_input")
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, httperr.Validation("invalid_date")
	}
	return d, nil
}

// watch replaces the running watch for topic.
func (s *Surface) watch(topic string, run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	if prev, ok := s.watches[topic]; ok {
		prev()
	}
	s.watches[topic] = cancel
	s.mu.Unlock()

	go run(ctx)
}

func (s *Surface) stop(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.watches[topic]; ok {
		cancel()
		delete(s.watches, topic)
	}
}

// --------------------------------------------------
// Handlers
// --------------------------------------------------

func (s *Surface) resolveSlots(msg Inbound) {
	var data resolveSlotsData
	if err := decode(msg.Data, &data); err != nil {
		s.fail(msg.RequestID, err)
		return
	}
	date, err := parseDate(data.Date)
	if err != nil || date.IsZero() {
		s.fail(msg.RequestID, httperr.Validation("invalid_date"))
		return
	}

	in := domain.AvailabilityInput{
		Provider:        domain.ProviderRef{ShopID: data.ShopID, BarberID: data.BarberID},
		ServiceID:       data.ServiceID,
		DurationMinutes: data.DurationMinutes,
		Date:            date,
	}

	// taken here, on the read loop, so selections rank in arrival order
	ctx, token := s.session.Begin(s.ctx)

	go func() {
		slots, err := s.session.Run(ctx, token, in)
		if errors.Is(err, ucappt.ErrSuperseded) || ctx.Err() != nil {
			return
		}
		s.session.Deliver(token, func() {
			if err != nil {
				s.fail(msg.RequestID, err)
				return
			}
			s.push(Outbound{Type: TypeSlots, RequestID: msg.RequestID, Data: map[string]any{
				"date":  data.Date,
				"slots": slots,
			}})
		})
	}()
}

func (s *Surface) watchSchedule(msg Inbound) {
	var data watchScheduleData
	if err := decode(msg.Data, &data); err != nil {
		s.fail(msg.RequestID, err)
		return
	}
	date, err := parseDate(data.Date)
	if err != nil {
		s.fail(msg.RequestID, err)
		return
	}
	provider, err := ucappt.ProviderFor(s.who)
	if err != nil {
		s.fail(msg.RequestID, err)
		return
	}

	s.watch(TypeSchedule, func(ctx context.Context) {
		s.svc.Tracker.Watch(ctx, provider, date, func(schedule *ucappt.DaySchedule, err error) {
			if err != nil {
				s.fail(msg.RequestID, err)
			}
			s.push(Outbound{Type: TypeSchedule, RequestID: msg.RequestID, Data: schedule})
		})
	})
}

func (s *Surface) watchBreakStatus(msg Inbound) {
	var data watchBreakStatusData
	if err := decode(msg.Data, &data); err != nil {
		s.fail(msg.RequestID, err)
		return
	}

	barberID := data.BarberID
	if barberID == 0 {
		barberID = s.who.UserID
	}
	if err := s.svc.Breaks.Authorize(s.ctx, s.who, barberID); err != nil {
		s.fail(msg.RequestID, err)
		return
	}

	s.watch(TypeBreakStatus, func(ctx context.Context) {
		s.svc.Watcher.WatchState(ctx, s.svc.Breaks, barberID, func(state breakstatus.State, err error) {
			if err != nil {
				s.fail(msg.RequestID, err)
				return
			}
			s.push(Outbound{Type: TypeBreakStatus, RequestID: msg.RequestID, Data: state})
		})
	})
}

func (s *Surface) watchBreakQueue(msg Inbound) {
	if s.who.Role != models.RoleOwner || s.who.ShopID == nil {
		s.fail(msg.RequestID, httperr.Forbidden("forbidden"))
		return
	}
	shopID := *s.who.ShopID

	s.watch(TypeBreakQueue, func(ctx context.Context) {
		s.svc.Watcher.WatchQueue(ctx, s.svc.Breaks, shopID, func(reqs []breakstatus.Request, err error) {
			if err != nil {
				s.fail(msg.RequestID, err)
				return
			}
			s.push(Outbound{Type: TypeBreakQueue, RequestID: msg.RequestID, Data: reqs})
		})
	})
}
