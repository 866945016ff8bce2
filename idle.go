package authkit

import (
	"sync"
	"time"
)

// IdleState is the idle monitor's current position in its lifecycle.
type IdleState uint8

const (
	// IdleInactive means not authenticated; the monitor is disabled.
	IdleInactive IdleState = iota
	// IdleWatching means authenticated and foregrounded, timer running.
	IdleWatching
	// IdleWarned means the warning fired; expiry is imminent.
	IdleWarned
	// IdleExpired means the timeout fired and logout was triggered.
	IdleExpired
	// IdlePaused means authenticated but backgrounded, timer suspended.
	IdlePaused
)

func (s IdleState) String() string {
	switch s {
	case IdleInactive:
		return "inactive"
	case IdleWatching:
		return "watching"
	case IdleWarned:
		return "warned"
	case IdleExpired:
		return "expired"
	case IdlePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// IdleMonitor force-terminates sessions after a fixed idle window, with a
// one-shot warning beforehand. One repeating ticker drives it while
// watching; backgrounding suspends the ticker but preserves the activity
// anchor, so time keeps passing against the timeout.
type IdleMonitor struct {
	cfg      SessionConfig
	onWarn   func()
	onExpire func()
	metrics  *Metrics
	now      func() time.Time

	mu           sync.Mutex
	state        IdleState
	lastActivity time.Time
	ticker       *time.Ticker
	stopTicker   chan struct{}
}

// NewIdleMonitor creates a monitor in the inactive state. onWarn and
// onExpire fire at most once per watch period; onExpire is expected to
// trigger logout.
func NewIdleMonitor(cfg SessionConfig, onWarn, onExpire func()) *IdleMonitor {
	return &IdleMonitor{
		cfg:      cfg,
		onWarn:   onWarn,
		onExpire: onExpire,
		now:      time.Now,
	}
}

// UseMetrics attaches a metrics instance for warning/expiry counters.
func (m *IdleMonitor) UseMetrics(metrics *Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

// State returns the current monitor state.
func (m *IdleMonitor) State() IdleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins watching. Call it when the user authenticates. Starting
// while already watching, warned, or paused is a no-op: session events
// are not qualifying user activity, and only Foreground may leave the
// paused state with its anchor intact.
func (m *IdleMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == IdleWatching || m.state == IdleWarned || m.state == IdlePaused {
		return
	}
	m.state = IdleWatching
	m.lastActivity = m.now()
	m.startTickerLocked()
}

// Stop disables the monitor. Call it on logout, explicit or forced.
func (m *IdleMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = IdleInactive
	m.stopTickerLocked()
}

// ResetTimeout records qualifying user activity, clearing the warning and
// restarting the idle clock. It is a no-op unless the monitor is
// watching or warned.
func (m *IdleMonitor) ResetTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != IdleWatching && m.state != IdleWarned {
		return
	}
	m.lastActivity = m.now()
	m.state = IdleWatching
}

// Background suspends the monitor while the app is not foregrounded. The
// activity anchor is preserved so idle time keeps accruing.
func (m *IdleMonitor) Background() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != IdleWatching && m.state != IdleWarned {
		return
	}
	m.state = IdlePaused
	m.stopTickerLocked()
}

// Foreground resumes the monitor. If the timeout elapsed while
// backgrounded, expiry fires immediately.
func (m *IdleMonitor) Foreground() {
	m.mu.Lock()

	if m.state != IdlePaused {
		m.mu.Unlock()
		return
	}
	if m.now().Sub(m.lastActivity) >= m.cfg.IdleTimeout {
		m.expireLocked()
		m.mu.Unlock()
		return
	}
	m.state = IdleWatching
	m.startTickerLocked()
	m.mu.Unlock()
}

// check evaluates the idle clock once. The ticker goroutine calls it
// every ActivityTick; tests call it directly with a simulated clock.
func (m *IdleMonitor) check() {
	m.mu.Lock()

	if m.state != IdleWatching && m.state != IdleWarned {
		m.mu.Unlock()
		return
	}

	elapsed := m.now().Sub(m.lastActivity)
	if elapsed >= m.cfg.IdleTimeout {
		m.expireLocked()
		m.mu.Unlock()
		return
	}
	if m.state == IdleWatching && elapsed >= m.cfg.IdleTimeout-m.cfg.IdleWarning {
		m.state = IdleWarned
		onWarn := m.onWarn
		m.metrics.Inc(MetricIdleWarning)
		m.mu.Unlock()
		if onWarn != nil {
			onWarn()
		}
		return
	}
	m.mu.Unlock()
}

// expireLocked transitions to expired and fires the expiry callback on a
// fresh goroutine so the callback can call back into the monitor.
func (m *IdleMonitor) expireLocked() {
	m.state = IdleExpired
	m.stopTickerLocked()
	m.metrics.Inc(MetricIdleExpiry)
	if m.onExpire != nil {
		go m.onExpire()
	}
}

func (m *IdleMonitor) startTickerLocked() {
	if m.ticker != nil || m.cfg.ActivityTick <= 0 {
		return
	}
	ticker := time.NewTicker(m.cfg.ActivityTick)
	stop := make(chan struct{})
	m.ticker = ticker
	m.stopTicker = stop

	go func() {
		for {
			select {
			case <-ticker.C:
				m.check()
			case <-stop:
				return
			}
		}
	}()
}

func (m *IdleMonitor) stopTickerLocked() {
	if m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.stopTicker)
	m.ticker = nil
	m.stopTicker = nil
}

// BindStore wires the monitor to store auth transitions: authentication
// starts it, losing authentication stops it. It returns the unsubscribe
// function.
func (m *IdleMonitor) BindStore(store *Store) func() {
	return store.Subscribe(func(state State) {
		if state.IsAuthenticated {
			m.Start()
			return
		}
		m.Stop()
	})
}
