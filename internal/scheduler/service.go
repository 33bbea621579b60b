package scheduler

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/typefo/lamb/internal/dbroute"
	"github.com/typefo/lamb/internal/gwconfig"
	"github.com/typefo/lamb/internal/metrics"
	"github.com/typefo/lamb/internal/queue"
	"github.com/typefo/lamb/internal/routing"
	"github.com/typefo/lamb/internal/session"
	"github.com/typefo/lamb/internal/stats"
	"github.com/typefo/lamb/internal/wire"
)

// debugSink publishes queue depths to the debug log, matching the
// original's "implicit debug log only" stats sink for the scheduler
// (spec.md §4.7). It is a no-op at info level and above.
type debugSink struct {
	log *logrus.Logger
}

func (s debugSink) Reset(ctx context.Context) error { return nil }

func (s debugSink) Set(ctx context.Context, id uint32, depth int) error {
	s.log.WithFields(logrus.Fields{"channel": id, "depth": depth}).Debug("scheduler: queue depth")
	return nil
}

// metricsSink adapts a metrics.Registry to stats.Sink, so the sampler
// updates the internal gauge the same tick it publishes externally
// (SPEC_FULL.md §4.10).
type metricsSink struct {
	next stats.Sink
	reg  *metrics.Registry
}

func (s metricsSink) Reset(ctx context.Context) error { return s.next.Reset(ctx) }

func (s metricsSink) Set(ctx context.Context, id uint32, depth int) error {
	s.reg.QueueDepth.WithLabelValues(fmt.Sprintf("%d", id)).Set(float64(depth))
	return s.next.Set(ctx, id, depth)
}

// Service wires the scheduler's control endpoint, session workers,
// routing, and stats sampler together.
type Service struct {
	cfg     *gwconfig.Config
	pool    *queue.Pool
	db      *pgxpool.Pool
	log     *logrus.Logger
	metrics *metrics.Registry
}

// New opens the routing database and returns a ready-to-run Service. A
// DB connection failure here is a startup failure (spec.md §7).
func New(ctx context.Context, cfg *gwconfig.Config, log *logrus.Logger) (*Service, error) {
	db, err := dbroute.Open(ctx, dbroute.Config{
		Host: cfg.DbHost, Port: cfg.DbPort, User: cfg.DbUser,
		Password: cfg.DbPassword, Name: cfg.DbName,
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	return &Service{
		cfg:     cfg,
		pool:    queue.NewPool(),
		db:      db,
		log:     log,
		metrics: metrics.New("lamb_scheduler"),
	}, nil
}

// Run binds the control endpoint and serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Listen, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("scheduler: listen on %s: %w", addr, err)
	}

	ctrl := &session.Control{
		Listener:           ln,
		Log:                s.log,
		Spawn:              s.spawn,
		OnHandshakeTimeout: s.metrics.HandshakeTimeout.Inc,
	}

	go stats.Run(ctx, s.pool, metricsSink{next: debugSink{log: s.log}, reg: s.metrics}, s.log)
	go s.metrics.Serve(ctx, s.cfg.MetricsAddr)

	return ctrl.Serve(ctx)
}

// Close releases the database connection pool.
func (s *Service) Close() {
	s.db.Close()
}

func (s *Service) spawn(ctx context.Context, req wire.Request, ready chan<- session.Result) {
	peer := session.Peer{ID: req.ID, Type: req.Type, Addr: req.Addr}
	timeout := time.Duration(s.cfg.Timeout) * time.Second
	startPort := s.cfg.Port + 1

	switch req.Type {
	case wire.SessionPush:
		handler := NewPushHandler(ctx, s.pool, req.ID, func(ctx context.Context, account uint32) ([]routing.Channel, error) {
			channels, err := dbroute.LoadChannels(ctx, s.db, account)
			if err != nil {
				s.log.WithError(err).WithField("id", account).Warn("scheduler: channel list load failed, session degrades to NOROUTE")
			}
			return channels, err
		}, func(o routing.Outcome) {
			s.metrics.RouteOutcomes.WithLabelValues(o.String()).Inc()
		})
		session.RunProducer(ctx, peer, s.cfg.Listen, startPort, timeout, handler, ready, s.log)
	case wire.SessionTest:
		handler := NewTestHandler(s.pool)
		session.RunProducer(ctx, peer, s.cfg.Listen, startPort, timeout, handler, ready, s.log)
	case wire.SessionPull:
		session.RunConsumer(ctx, peer, s.cfg.Listen, startPort, timeout, s.pool, ready, s.log)
	default:
		s.log.WithField("type", req.Type).Warn("scheduler: unknown session type, discarding")
	}
}
