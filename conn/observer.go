package conn

import (
	"io"
	"time"

	"github.com/lcx/hermes/log"
	"github.com/lcx/hermes/metrics"
)

// DefaultIdleTimeout is how long a connection may sit without a single
// active stream before the observer closes it.
const DefaultIdleTimeout = 5 * time.Minute

// LifecycleDelegate receives the connection lifecycle entry points the
// observer derives from raw transport events. ConnManager implements it.
type LifecycleDelegate interface {
	ChannelActive()
	ChannelInactive()
	Ready()
	Idle()
}

// observerPhase is the observer's own view of the connection, separate
// from the connectivity state machine it feeds.
type observerPhase int

const (
	obsNotReady observerPhase = iota
	obsReady
	obsClosed
)

// LifecycleObserver watches the transport events of one physical
// connection and keeps the active-stream count. When the count stays at
// zero for the idle timeout it retires the connection by notifying the
// delegate and closing the transport. All methods must be invoked on the
// connection's executor.
type LifecycleObserver struct {
	executor *Executor
	delegate LifecycleDelegate
	closer   io.Closer
	logger   *log.ConnLogger

	idleTimeout time.Duration
	phase       observerPhase
	streamCount int
	idleTimer   *Timer
}

// ObserverOption customizes a LifecycleObserver.
type ObserverOption func(*LifecycleObserver)

// WithIdleTimeout overrides DefaultIdleTimeout. d <= 0 keeps the default.
func WithIdleTimeout(d time.Duration) ObserverOption {
	return func(o *LifecycleObserver) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// NewLifecycleObserver binds an observer to one connection. closer is the
// transport to close when the connection goes idle; logger may be nil.
func NewLifecycleObserver(ex *Executor, delegate LifecycleDelegate,
	closer io.Closer, logger *log.ConnLogger, opts ...ObserverOption) *LifecycleObserver {
	if logger == nil {
		logger = log.NewConnLogger(nil, 0)
	}

	o := &LifecycleObserver{
		executor:    ex,
		delegate:    delegate,
		closer:      closer,
		logger:      logger,
		idleTimeout: DefaultIdleTimeout,
		phase:       obsNotReady,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StreamCount returns the number of streams currently open.
func (o *LifecycleObserver) StreamCount() int {
	return o.streamCount
}

// Closed reports whether the observer has retired the connection.
func (o *LifecycleObserver) Closed() bool {
	return o.phase == obsClosed
}

// IdleTimerScheduled reports whether an idle timer is pending.
func (o *LifecycleObserver) IdleTimerScheduled() bool {
	return o.idleTimer != nil
}

// StreamCreated records a new stream. Any pending idle timer is cancelled
// first so a connection with traffic can never idle out.
func (o *LifecycleObserver) StreamCreated() {
	if o.phase == obsClosed {
		return
	}

	o.cancelIdleTimer()
	o.streamCount++
	metrics.UpdateGaugeWithGroup("conn", "active_streams", metrics.Value(o.streamCount))
	o.logger.Debug().Int("streams", o.streamCount).Msg("stream created")
}

// StreamClosed records a finished stream. When the last stream goes away
// a fresh idle timer starts counting.
func (o *LifecycleObserver) StreamClosed() {
	if o.phase == obsClosed {
		return
	}

	if o.streamCount > 0 {
		o.streamCount--
	}
	metrics.UpdateGaugeWithGroup("conn", "active_streams", metrics.Value(o.streamCount))
	o.logger.Debug().Int("streams", o.streamCount).Msg("stream closed")

	if o.streamCount == 0 {
		o.scheduleIdleTimer()
	}
}

// ChannelActive reports that the transport came up. Only meaningful
// before the handshake completed.
func (o *LifecycleObserver) ChannelActive() {
	if o.phase != obsNotReady {
		return
	}
	o.delegate.ChannelActive()
}

// ChannelInactive reports that the transport died underneath us.
func (o *LifecycleObserver) ChannelInactive() {
	o.cancelIdleTimer()
	if o.phase == obsClosed {
		return
	}
	o.delegate.ChannelInactive()
}

// SettingsReceived marks the handshake as complete. Only the first
// settings frame changes anything, later ones are plain acks.
func (o *LifecycleObserver) SettingsReceived() {
	if o.phase != obsNotReady {
		return
	}

	o.phase = obsReady
	// 就绪时还没有任何流, 空闲计时从现在开始
	if o.streamCount == 0 {
		o.scheduleIdleTimer()
	}
	o.delegate.Ready()
}

// GoingAwayReceived handles the peer announcing an orderly shutdown. With
// no active streams the connection is retired immediately; with streams
// still open nothing happens here and the last StreamClosed re-evaluates.
func (o *LifecycleObserver) GoingAwayReceived() {
	if o.phase == obsClosed {
		return
	}

	if o.streamCount > 0 {
		metrics.IncrCounterWithGroup("conn", "goaway_drain_total", 1)
		o.logger.Info().Int("streams", o.streamCount).Msg("going away received, draining streams")
		return
	}

	o.logger.Info().Msg("going away received, closing connection")
	o.retire()
}

func (o *LifecycleObserver) scheduleIdleTimer() {
	o.cancelIdleTimer()
	o.idleTimer = o.executor.AfterFunc(o.idleTimeout, o.idleFired)
	o.logger.Debug().Dur("timeout", o.idleTimeout).Msg("idle timer scheduled")
}

func (o *LifecycleObserver) cancelIdleTimer() {
	o.idleTimer.Cancel()
	o.idleTimer = nil
}

// idleFired runs on the executor when the idle timer expires. A stream
// that arrived after scheduling means the timer is stale.
func (o *LifecycleObserver) idleFired() {
	o.idleTimer = nil
	if o.phase == obsClosed || o.streamCount != 0 {
		return
	}

	metrics.IncrCounterWithGroup("conn", "idle_close_total", 1)
	o.logger.Info().Dur("timeout", o.idleTimeout).Msg("connection idle, closing")
	o.retire()
}

// retire transitions to closed exactly once, tells the delegate the
// connection went idle and closes the transport.
func (o *LifecycleObserver) retire() {
	o.cancelIdleTimer()
	o.phase = obsClosed
	o.delegate.Idle()

	if o.closer == nil {
		return
	}
	if err := o.closer.Close(); err != nil {
		o.logger.Warn().Err(err).Msg("close transport")
	}
}
