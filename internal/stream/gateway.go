// Package stream adapts the event bus to one long-lived push connection.
// Each gateway serves a single client: it forwards package-domain events,
// keeps the transport alive with heartbeats, and tears everything down
// exactly once regardless of which side closes first.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swiftcourier/courier-api/internal/domains/shipments/domain"
	"github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	"github.com/swiftcourier/courier-api/internal/platform/eventbus"
)

const (
	// DefaultHeartbeatInterval keeps intermediaries from dropping the
	// connection between domain events.
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultBufferSize bounds how many frames a slow client may lag
	// behind before events are dropped for it.
	DefaultBufferSize = 32
	// dedupWindow bounds how many recent event ids are remembered to
	// suppress the duplicate delivery caused by subscribing to both the
	// package topic and the wildcard.
	dedupWindow = 256
)

// Frame is one message pushed to the client. Type discriminates:
// connection, stats, heartbeat, or a forwarded domain event name.
type Frame struct {
	Type           string            `json:"type"`
	EventID        string            `json:"eventId,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	TrackingNumber string            `json:"trackingNumber,omitempty"`
	Status         string            `json:"status,omitempty"`
	FromStatus     string            `json:"fromStatus,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Location       string            `json:"location,omitempty"`
	Description    string            `json:"description,omitempty"`
	Changes        map[string]string `json:"changes,omitempty"`
	Stats          *StatsPayload     `json:"stats,omitempty"`
	Message        string            `json:"message,omitempty"`
}

// StatsPayload is the store snapshot pushed on connect.
type StatsPayload struct {
	TotalPackages   int64            `json:"totalPackages"`
	TotalActivities int64            `json:"totalActivities"`
	ByStatus        map[string]int64 `json:"byStatus"`
}

// StatsFunc pulls a fresh snapshot from the entity store.
type StatsFunc func(ctx context.Context) (*ports.Stats, error)

// Gateway fans bus events out to one connected client.
type Gateway struct {
	bus       *eventbus.Bus
	stats     StatsFunc
	logger    *slog.Logger
	heartbeat time.Duration

	out       chan Frame
	closed    chan struct{}
	closeOnce sync.Once
	isClosed  atomic.Bool
	unsubs    []func()

	dedupMu   sync.Mutex
	dedupSeen map[string]struct{}
	dedupRing [dedupWindow]string
	dedupNext int

	dropped atomic.Int64
}

type Option func(*Gateway)

// WithHeartbeatInterval overrides the keep-alive cadence.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(g *Gateway) {
		g.heartbeat = interval
	}
}

// WithBufferSize overrides the outbound frame buffer.
func WithBufferSize(size int) Option {
	return func(g *Gateway) {
		g.out = make(chan Frame, size)
	}
}

// WithLogger injects the logger used for drop reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// Open wires a gateway to the bus and starts it: the connection frame and
// a fresh stats snapshot are queued immediately, subscriptions are
// registered, and the heartbeat starts ticking.
func Open(ctx context.Context, bus *eventbus.Bus, stats StatsFunc, opts ...Option) *Gateway {
	g := &Gateway{
		bus:       bus,
		stats:     stats,
		logger:    slog.Default(),
		heartbeat: DefaultHeartbeatInterval,
		out:       make(chan Frame, DefaultBufferSize),
		closed:    make(chan struct{}),
		dedupSeen: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(g)
	}

	g.send(Frame{Type: "connection", Timestamp: time.Now(), Message: "connected"})
	g.sendStats(ctx)

	g.unsubs = append(g.unsubs,
		g.bus.Subscribe(domain.TopicAdminPackages, g.onBusEvent),
		g.bus.Subscribe(eventbus.TopicWildcard, g.onWildcardEvent),
	)

	go g.heartbeatLoop()
	return g
}

// Frames is the outbound queue the transport drains.
func (g *Gateway) Frames() <-chan Frame { return g.out }

// Done is closed when the gateway has shut down.
func (g *Gateway) Done() <-chan struct{} { return g.closed }

// Dropped reports how many frames were discarded because the client
// could not keep up.
func (g *Gateway) Dropped() int64 { return g.dropped.Load() }

// Close tears the gateway down: the closed flag stops in-flight publishes
// from touching the transport, the heartbeat stops, and both
// subscriptions are removed. Safe to call from multiple paths; only the
// first call does the work.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		g.isClosed.Store(true)
		close(g.closed)
		for _, unsub := range g.unsubs {
			unsub()
		}
	})
}

func (g *Gateway) onBusEvent(_ string, event eventbus.Event) {
	g.forward(event)
}

// onWildcardEvent forwards only the package event types the admin feed
// cares about; everything else on the wildcard is ignored.
func (g *Gateway) onWildcardEvent(_ string, event eventbus.Event) {
	switch event.EventName() {
	case "package_updated", "status_changed":
		g.forward(event)
	}
}

func (g *Gateway) forward(event eventbus.Event) {
	if g.isClosed.Load() {
		return
	}
	if g.alreadySeen(event.EventID()) {
		return
	}
	frame, ok := frameFromEvent(event)
	if !ok {
		return
	}
	g.send(frame)
}

// alreadySeen suppresses the double delivery a single publish produces
// through the topic and wildcard subscriptions.
func (g *Gateway) alreadySeen(eventID string) bool {
	if eventID == "" {
		return false
	}
	g.dedupMu.Lock()
	defer g.dedupMu.Unlock()
	if _, ok := g.dedupSeen[eventID]; ok {
		return true
	}
	if evicted := g.dedupRing[g.dedupNext]; evicted != "" {
		delete(g.dedupSeen, evicted)
	}
	g.dedupRing[g.dedupNext] = eventID
	g.dedupNext = (g.dedupNext + 1) % dedupWindow
	g.dedupSeen[eventID] = struct{}{}
	return false
}

// send never blocks: a slow client loses frames instead of stalling the
// publisher.
func (g *Gateway) send(frame Frame) {
	if g.isClosed.Load() {
		return
	}
	select {
	case g.out <- frame:
	default:
		g.dropped.Add(1)
		g.logger.Warn("stream client too slow, frame dropped",
			slog.String("type", frame.Type),
			slog.Int64("totalDropped", g.dropped.Load()),
		)
	}
}

func (g *Gateway) sendStats(ctx context.Context) {
	if g.stats == nil {
		return
	}
	snapshot, err := g.stats(ctx)
	if err != nil {
		g.logger.Error("failed to load stats snapshot", slog.String("error", err.Error()))
		return
	}
	byStatus := make(map[string]int64, len(snapshot.ByStatus))
	for status, count := range snapshot.ByStatus {
		byStatus[string(status)] = count
	}
	g.send(Frame{
		Type:      "stats",
		Timestamp: time.Now(),
		Stats: &StatsPayload{
			TotalPackages:   snapshot.TotalPackages,
			TotalActivities: snapshot.TotalActivities,
			ByStatus:        byStatus,
		},
	})
}

func (g *Gateway) heartbeatLoop() {
	ticker := time.NewTicker(g.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-g.closed:
			return
		case <-ticker.C:
			g.send(Frame{Type: "heartbeat", Timestamp: time.Now()})
		}
	}
}

func frameFromEvent(event eventbus.Event) (Frame, bool) {
	switch e := event.(type) {
	case domain.PackageCreated:
		return Frame{
			Type:           e.EventName(),
			EventID:        e.EventID(),
			Timestamp:      e.OccurredAt(),
			TrackingNumber: e.TrackingNumber,
			Status:         string(e.Status),
		}, true
	case domain.StatusChanged:
		return Frame{
			Type:           e.EventName(),
			EventID:        e.EventID(),
			Timestamp:      e.OccurredAt(),
			TrackingNumber: e.TrackingNumber,
			Status:         string(e.NewStatus),
			FromStatus:     string(e.FromStatus),
			Reason:         e.Reason,
			Location:       e.Location,
		}, true
	case domain.PackageUpdated:
		return Frame{
			Type:           e.EventName(),
			EventID:        e.EventID(),
			Timestamp:      e.OccurredAt(),
			TrackingNumber: e.TrackingNumber,
			Status:         string(e.Status),
			Description:    e.Description,
			Location:       e.Location,
			Changes:        e.Changes,
		}, true
	case domain.PackageDeleted:
		return Frame{
			Type:           e.EventName(),
			EventID:        e.EventID(),
			Timestamp:      e.OccurredAt(),
			TrackingNumber: e.TrackingNumber,
		}, true
	default:
		return Frame{}, false
	}
}
