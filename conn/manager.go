package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/lcx/hermes/backoff"
	"github.com/lcx/hermes/config"
	"github.com/lcx/hermes/log"
	"github.com/lcx/hermes/metrics"
	"github.com/lcx/hermes/resolver"
)

// Dialer opens the physical transport to a resolved target. The manager
// retains the returned closer so idle handling can tear it down again.
type Dialer interface {
	Dial(ctx context.Context, target resolver.Target) (io.Closer, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, target resolver.Target) (io.Closer, error)

func (f DialerFunc) Dial(ctx context.Context, target resolver.Target) (io.Closer, error) {
	return f(ctx, target)
}

// ConnManager drives one logical connection through its lifecycle: it
// dials, tracks connectivity, redials on the backoff schedule when the
// transport fails, and parks in Idle when the connection is unused. All
// state lives on the manager's executor; the exported entry points post
// onto it, and the methods shared with LifecycleDelegate are invoked on
// it directly by the observer.
type ConnManager struct {
	executor *Executor
	monitor  *StateMonitor
	res      resolver.Resolver
	dialer   Dialer

	ctx    context.Context
	cancel context.CancelFunc

	logCfg      *log.LogCfg
	delegate    StateDelegate
	backoffCfg  backoff.Cfg
	idleTimeout time.Duration
	queueSize   int

	ownsResolver bool
	transportCfg *TransportCfg

	stateMirror atomic.Int32
	maxRecvSize atomic.Int64
	connSeq     atomic.Uint64
	observer    atomic.Pointer[LifecycleObserver]

	// 以下字段只在执行器协程上读写
	it          *backoff.Iterator
	current     io.Closer
	logger      *log.ConnLogger
	redialTimer *Timer
	dialGen     int
	attempt     int
}

// ManagerOption customizes a ConnManager.
type ManagerOption func(*ConnManager)

// WithTransportCfg applies a loaded transport configuration. A non-empty
// Target builds a static resolver when none was passed explicitly.
func WithTransportCfg(cfg *TransportCfg) ManagerOption {
	return func(m *ConnManager) {
		if cfg == nil {
			return
		}
		m.transportCfg = cfg
		m.backoffCfg = cfg.BackoffCfg()
		m.idleTimeout = cfg.IdleTimeout()
		m.maxRecvSize.Store(int64(cfg.MaxRecvMsgSize))
	}
}

// WithBackoff overrides the reconnection backoff parameters.
func WithBackoff(cfg backoff.Cfg) ManagerOption {
	return func(m *ConnManager) {
		m.backoffCfg = cfg
	}
}

// WithDelegate registers a persistent observer for connectivity changes.
func WithDelegate(d StateDelegate) ManagerOption {
	return func(m *ConnManager) {
		m.delegate = d
	}
}

// WithLogCfg sets the logging configuration used for the per-connection
// loggers.
func WithLogCfg(cfg *log.LogCfg) ManagerOption {
	return func(m *ConnManager) {
		m.logCfg = cfg
	}
}

// WithQueueSize sets the executor job queue capacity.
func WithQueueSize(n int) ManagerOption {
	return func(m *ConnManager) {
		m.queueSize = n
	}
}

// NewConnManager creates a manager in the Idle state. Nothing is dialed
// until Connect. res may be nil when the transport config names a target.
func NewConnManager(res resolver.Resolver, dialer Dialer, opts ...ManagerOption) (*ConnManager, error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &ConnManager{
		res:         res,
		dialer:      dialer,
		ctx:         ctx,
		cancel:      cancel,
		backoffCfg:  backoff.DefaultCfg(),
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.dialer == nil {
		cancel()
		return nil, errors.New("conn: dialer must not be nil")
	}
	if m.res == nil && m.transportCfg != nil && m.transportCfg.Target != "" {
		target, err := resolver.Parse(m.transportCfg.Target)
		if err != nil {
			cancel()
			return nil, err
		}
		m.res = resolver.Static(target)
		m.ownsResolver = true
	}
	if m.res == nil {
		cancel()
		return nil, errors.New("conn: no resolver and no target configured")
	}
	if err := m.backoffCfg.Validate(); err != nil {
		cancel()
		return nil, err
	}

	m.executor = NewExecutor(m.queueSize)
	m.monitor = NewStateMonitor(m.delegate)
	m.logger = log.NewConnLogger(m.logCfg, 0)
	m.stateMirror.Store(int32(Idle))
	return m, nil
}

// State returns the current connectivity state. Safe from any goroutine.
func (m *ConnManager) State() ConnectivityState {
	return ConnectivityState(m.stateMirror.Load())
}

// Observer returns the lifecycle observer of the current physical
// connection, or nil when none is established. The transport layer feeds
// its events into it via the executor.
func (m *ConnManager) Observer() *LifecycleObserver {
	return m.observer.Load()
}

// MaxRecvMsgSize returns the configured inbound message size cap, zero
// meaning unlimited. Stream setup reads it when creating read states.
func (m *ConnManager) MaxRecvMsgSize() int {
	return int(m.maxRecvSize.Load())
}

// Connect asks the manager to establish a connection. It is a no-op
// unless the manager is Idle. ctx gates only the hand-off; the redial
// loop is owned by the manager and stopped by Shutdown.
func (m *ConnManager) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.executor.Post(m.startConnecting)
}

// OnNext registers a one-shot callback for the next entry into state.
// fn runs on the executor.
func (m *ConnManager) OnNext(state ConnectivityState, fn func()) error {
	return m.executor.Post(func() {
		m.monitor.OnNext(state, fn)
	})
}

// Shutdown permanently closes the connection and stops the executor. It
// returns once the transition has been processed or ctx expires.
func (m *ConnManager) Shutdown(ctx context.Context) error {
	if m.State() == Shutdown {
		// 状态已经终结, 把执行器也收掉
		m.executor.Close()
		return nil
	}

	done := make(chan struct{})
	if err := m.executor.Post(func() {
		defer close(done)
		m.shutdownOnExecutor()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		m.executor.Close()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnConfigChanged implements config.ConfigChangeListener. A reloaded
// transport config takes effect from the next connection attempt.
func (m *ConnManager) OnConfigChanged(name string, newCfg, oldCfg config.Config) error {
	if name != TransportCfgName {
		return nil
	}
	cfg, ok := newCfg.(*TransportCfg)
	if !ok {
		return fmt.Errorf("conn: unexpected config type %T for %q", newCfg, name)
	}
	return m.executor.Post(func() {
		m.applyCfg(cfg)
	})
}

// ChannelActive implements LifecycleDelegate.
func (m *ConnManager) ChannelActive() {
	m.logger.Debug().Str("state", m.monitor.State().String()).Msg("transport active")
}

// ChannelInactive implements LifecycleDelegate. A transport dying in
// Ready or Connecting moves the manager to TransientFailure and schedules
// a redial; in any other state the connection was already let go.
func (m *ConnManager) ChannelInactive() {
	switch m.monitor.State() {
	case Ready:
		m.logger.Warn().Msg("transport inactive")
		m.dropConn()
		// 就绪过的连接掉线, 重连从新的退避序列开始
		m.it = backoff.NewIterator(m.backoffCfg)
		m.attempt = 0
		m.scheduleRedial()
	case Connecting:
		m.logger.Warn().Msg("transport inactive during handshake")
		m.dropConn()
		m.scheduleRedial()
	default:
		m.logger.Debug().Str("state", m.monitor.State().String()).Msg("transport inactive ignored")
	}
}

// Ready implements LifecycleDelegate, entered on the first settings frame.
func (m *ConnManager) Ready() {
	if m.monitor.State() != Connecting {
		return
	}
	m.toState(Ready)
}

// Idle implements LifecycleDelegate, entered when the observer retires an
// unused connection. The next Connect starts a fresh backoff sequence.
func (m *ConnManager) Idle() {
	if m.monitor.State() == Shutdown {
		return
	}
	m.cancelRedial()
	// 观察者已经关掉了底层连接, 这里只放掉引用
	m.releaseConn()
	m.toState(Idle)
}

func (m *ConnManager) toState(next ConnectivityState) bool {
	old := m.monitor.State()
	if !m.monitor.ToState(next) {
		return false
	}

	m.stateMirror.Store(int32(next))
	metrics.IncrCounterWithDimGroup("conn", "state_transition_total", 1, metrics.Dimension{
		"from": old.String(),
		"to":   next.String(),
	})
	m.logger.Info().Str("from", old.String()).Str("to", next.String()).Msg("connectivity changed")
	return true
}

func (m *ConnManager) startConnecting() {
	if m.monitor.State() != Idle {
		m.logger.Debug().Str("state", m.monitor.State().String()).Msg("connect ignored")
		return
	}

	m.it = backoff.NewIterator(m.backoffCfg)
	m.attempt = 0
	m.toState(Connecting)
	m.dialAttempt(m.backoffCfg.MinConnectTimeout)
}

// dialAttempt kicks off one dial in its own goroutine so a slow connect
// never stalls lifecycle events, and posts the outcome back. dialGen
// makes results from a superseded attempt detectable.
func (m *ConnManager) dialAttempt(timeout time.Duration) {
	m.dialGen++
	gen := m.dialGen
	m.attempt++
	attempt := m.attempt

	connID := m.connSeq.Add(1)
	logger := log.NewConnLogger(m.logCfg, connID)
	m.logger = logger

	metrics.IncrCounterWithGroup("conn", "dial_total", 1)
	logger.Info().Int("attempt", attempt).Dur("timeout", timeout).Msg("dialing")

	res, dialer := m.res, m.dialer
	start := time.Now()

	go func() {
		closer, err := dialOnce(m.ctx, res, dialer, timeout, attempt)
		if err != nil {
			_ = m.executor.Post(func() {
				m.dialFailed(gen, err)
			})
			return
		}
		if postErr := m.executor.Post(func() {
			m.dialSucceeded(gen, closer, start)
		}); postErr != nil {
			// 管理器已经关闭, 别泄漏刚建好的连接
			_ = closer.Close()
		}
	}()
}

func dialOnce(parent context.Context, res resolver.Resolver, dialer Dialer,
	timeout time.Duration, attempt int) (io.Closer, error) {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	targets, err := res.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, resolver.ErrNoInstances
	}

	// 多实例时按尝试次数轮询
	target := targets[(attempt-1)%len(targets)]
	return dialer.Dial(ctx, target)
}

func (m *ConnManager) dialFailed(gen int, err error) {
	if gen != m.dialGen || m.monitor.State() != Connecting {
		return // 过期的拨号结果
	}

	metrics.IncrCounterWithGroup("conn", "dial_error_total", 1)
	m.logger.Error().Err(err).Int("attempt", m.attempt).Msg("dial failed")
	m.scheduleRedial()
}

func (m *ConnManager) dialSucceeded(gen int, closer io.Closer, start time.Time) {
	if gen != m.dialGen || m.monitor.State() != Connecting {
		// Shutdown或新的连接周期赢了这次拨号
		_ = closer.Close()
		return
	}

	m.current = closer
	obs := NewLifecycleObserver(m.executor, m, closer, m.logger, WithIdleTimeout(m.idleTimeout))
	m.observer.Store(obs)

	metrics.RecordStopwatchWithGroup("conn", "connect_time", start)
	m.logger.Info().Msg("transport connected")
}

// scheduleRedial consumes the next backoff element and arms the redial
// timer. An exhausted retry budget shuts the connection down for good.
func (m *ConnManager) scheduleRedial() {
	m.toState(TransientFailure)

	el, ok := m.it.Next()
	if !ok {
		metrics.IncrCounterWithGroup("conn", "retry_exhausted_total", 1)
		m.logger.Error().Str("budget", m.backoffCfg.Retries.String()).Msg("retry budget exhausted, shutting down")
		m.shutdownOnExecutor()
		return
	}

	metrics.IncrCounterWithGroup("conn", "redial_scheduled_total", 1)
	m.logger.Info().
		Dur("backoff", el.Backoff).
		Dur("connectTimeout", el.ConnectTimeout).
		Msg("redial scheduled")

	m.redialTimer.Cancel()
	m.redialTimer = m.executor.AfterFunc(el.Backoff, func() {
		m.redial(el.ConnectTimeout)
	})
}

func (m *ConnManager) redial(connectTimeout time.Duration) {
	m.redialTimer = nil
	if m.monitor.State() != TransientFailure {
		return
	}

	m.toState(Connecting)
	m.dialAttempt(connectTimeout)
}

func (m *ConnManager) applyCfg(cfg *TransportCfg) {
	m.transportCfg = cfg
	m.backoffCfg = cfg.BackoffCfg()
	m.idleTimeout = cfg.IdleTimeout()
	m.maxRecvSize.Store(int64(cfg.MaxRecvMsgSize))

	if m.ownsResolver && cfg.Target != "" {
		if target, err := resolver.Parse(cfg.Target); err == nil {
			m.res = resolver.Static(target)
		} else {
			m.logger.Warn().Err(err).Msg("reloaded target unusable, keeping previous")
		}
	}

	// 已建立的连接沿用旧参数, 新值从下一次拨号开始生效
	m.logger.Info().Msg("transport config reloaded")
}

func (m *ConnManager) shutdownOnExecutor() {
	if m.monitor.State() == Shutdown {
		return
	}

	m.cancelRedial()
	m.dropConn()
	m.toState(Shutdown)
	m.cancel() // 放弃还在途中的拨号
}

func (m *ConnManager) cancelRedial() {
	m.redialTimer.Cancel()
	m.redialTimer = nil
}

func (m *ConnManager) dropConn() {
	c := m.current
	m.releaseConn()
	if c != nil {
		_ = c.Close()
	}
}

func (m *ConnManager) releaseConn() {
	m.observer.Store(nil)
	m.current = nil
}
