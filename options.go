package redisconn

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ReliabilityMode governs buffering and write-failure behavior (spec §3).
// It is immutable for the lifetime of a Handler, chosen at construction
// from the WithAutoReconnect option.
type ReliabilityMode int

const (
	// AtMostOnce issues a per-write completion callback; a failed write
	// fails the command and removes it from the dispatch queue. Commands
	// still in the dispatch queue or holding buffer are replayed on
	// activation as in AtLeastOnce.
	AtMostOnce ReliabilityMode = iota
	// AtLeastOnce uses a void promise per write and replays commands
	// left in the dispatch queue or holding buffer across a reconnect.
	AtLeastOnce
)

func (m ReliabilityMode) String() string {
	if m == AtLeastOnce {
		return "at-least-once"
	}
	return "at-most-once"
}

// Options configures a Handler. Constructed with functional options,
// matching the teacher's explicit-parameter constructors rather than a
// config-file loader: this package has no process of its own to load
// configuration for.
type Options struct {
	autoReconnect               bool
	cancelOnReconnectFailure    bool
	logger                      *logrus.Logger
	metrics                     *Metrics
	commandTimeout              time.Duration
	dialTimeout                 time.Duration
	pingInterval                time.Duration
	authPassword                []byte
	selectDB                    int64
	hasSelectDB                 bool
}

// Option mutates Options during construction.
type Option func(*Options)

// WithAutoReconnect selects AtLeastOnce reliability when enabled (the
// default is disabled, i.e. AtMostOnce), per spec §3's "Reliability mode"
// derivation rule.
func WithAutoReconnect(enabled bool) Option {
	return func(o *Options) { o.autoReconnect = enabled }
}

// WithCancelOnReconnectFailure sets the option spec §4.7 consults when
// executeQueuedCommands raises during activation: reset() runs before the
// exception is re-raised.
func WithCancelOnReconnectFailure(enabled bool) Option {
	return func(o *Options) { o.cancelOnReconnectFailure = enabled }
}

// WithLogger overrides the default logrus.Logger used for the handler's
// TRACE/DEBUG lifecycle, write-decision, and decode lines (§6, §10.1).
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithMetrics attaches a prometheus-backed Metrics collector (§11.2).
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.metrics = m }
}

// WithCommandTimeout bounds how long a written command waits for its
// reply before it is failed and the transport is forced to reconnect
// (§12 supplemented feature).
func WithCommandTimeout(d time.Duration) Option {
	return func(o *Options) { o.commandTimeout = d }
}

// WithDialTimeout records a dial timeout on Options. The Handler itself
// does not dial, and this value is not passed to package transport, whose
// Config.DialTimeout is set separately.
func WithDialTimeout(d time.Duration) Option {
	return func(o *Options) { o.dialTimeout = d }
}

// WithPingInterval enables the liveness probe (§12): a PING is written
// through the normal write path when the connection has been idle for at
// least the given interval. Zero disables it (the default).
func WithPingInterval(d time.Duration) Option {
	return func(o *Options) { o.pingInterval = d }
}

// WithAuth sets a sticky password replayed via AUTH ahead of the holding
// buffer on every (re)activation (§12 supplemented feature).
func WithAuth(password []byte) Option {
	return func(o *Options) { o.authPassword = password }
}

// WithSelectDB sets a sticky database index replayed via SELECT ahead of
// the holding buffer on every (re)activation (§12 supplemented feature).
func WithSelectDB(db int64) Option {
	return func(o *Options) {
		o.selectDB = db
		o.hasSelectDB = true
	}
}

func newOptions(opts ...Option) *Options {
	o := &Options{
		logger:      logrus.New(),
		dialTimeout: time.Second,
	}
	for _, apply := range opts {
		apply(o)
	}
	return o
}

func (o *Options) reliabilityMode() ReliabilityMode {
	if o.autoReconnect {
		return AtLeastOnce
	}
	return AtMostOnce
}
