// Package connectivity decides whether the sync server is actually
// reachable. The OS link state alone is not trusted: captive and degraded
// networks report "online" while nothing gets through, so a positive link
// state is confirmed with a cheap header-only probe against the server's
// health endpoint. A negative link state is trusted immediately.
package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dkrivenko/marksync/internal/logging"
)

// Event is an external connectivity transition worth re-probing for:
// the OS reports the link came up, or the app window regained focus.
type Event int

const (
	EventOnline Event = iota
	EventFocus
)

// Prober checks server liveness. api.Client satisfies it.
type Prober interface {
	Health(ctx context.Context) error
}

// Options tune the monitor; zero values fall back to defaults.
type Options struct {
	ProbeTimeout  time.Duration // per-probe deadline (default 3s)
	ProbeInterval time.Duration // idle re-probe period (default 30s)
	SettleDelay   time.Duration // pause after a transition event before probing (default 1500ms)
	LinkUp        func() bool   // OS-level link signal (default: interface scan)
}

// Monitor produces the advisory online/offline verdict every component
// consults before network I/O. It is advisory only: callers still handle
// request-level failures.
type Monitor struct {
	probe         Prober
	log           logging.Logger
	probeTimeout  time.Duration
	probeInterval time.Duration
	settleDelay   time.Duration
	linkUp        func() bool

	events chan Event

	mu     sync.Mutex
	online bool
	known  bool
	subs   map[int]chan bool
	nextID int
}

func NewMonitor(probe Prober, log logging.Logger, opts Options) *Monitor {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 3 * time.Second
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 30 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 1500 * time.Millisecond
	}
	if opts.LinkUp == nil {
		opts.LinkUp = defaultLinkUp
	}
	return &Monitor{
		probe:         probe,
		log:           log,
		probeTimeout:  opts.ProbeTimeout,
		probeInterval: opts.ProbeInterval,
		settleDelay:   opts.SettleDelay,
		linkUp:        opts.LinkUp,
		events:        make(chan Event, 4),
		subs:          make(map[int]chan bool),
	}
}

// Online reports current reachability: cheap negative from the link state,
// otherwise a header-only probe with a short deadline.
func (m *Monitor) Online(ctx context.Context) bool {
	if !m.linkUp() {
		m.record(ctx, false)
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	ok := m.probe.Health(probeCtx) == nil
	m.record(ctx, ok)
	return ok
}

// Notify reports an external transition (OS "online" event, window focus).
// The probe that follows waits out the settle delay first, so flapping
// network handoffs do not produce false positives.
func (m *Monitor) Notify(e Event) {
	select {
	case m.events <- e:
	default:
		// a probe is already queued; coalesce
	}
}

// Watch re-probes on a fixed interval while idle and immediately (after the
// settle delay) on transition events, until ctx is done.
func (m *Monitor) Watch(ctx context.Context) {
	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Online(ctx)
		case <-m.events:
			select {
			case <-time.After(m.settleDelay):
			case <-ctx.Done():
				return
			}
			m.Online(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Subscribe returns a channel receiving every verdict change and an
// unsubscribe handle. The channel is buffered; a slow consumer misses
// intermediate transitions rather than blocking the monitor.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 8)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

func (m *Monitor) record(ctx context.Context, online bool) {
	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	var targets []chan bool
	if changed {
		for _, ch := range m.subs {
			targets = append(targets, ch)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	m.log.Info(ctx, "connectivity changed", "online", online)
	for _, ch := range targets {
		select {
		case ch <- online:
		default:
		}
	}
}

// defaultLinkUp approximates the OS link signal: true when any non-loopback
// interface is up. Known to be optimistic; that is why the probe exists.
func defaultLinkUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return true
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagUp != 0 {
			return true
		}
	}
	return false
}
