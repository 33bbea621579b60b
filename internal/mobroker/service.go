package mobroker

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/typefo/lamb/internal/cache"
	"github.com/typefo/lamb/internal/gwconfig"
	"github.com/typefo/lamb/internal/metrics"
	"github.com/typefo/lamb/internal/queue"
	"github.com/typefo/lamb/internal/session"
	"github.com/typefo/lamb/internal/stats"
	"github.com/typefo/lamb/internal/wire"
)

// metricsSink adapts a metrics.Registry to stats.Sink, so the sampler
// updates the internal gauge the same tick it publishes to Redis
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

// Service wires the mo-broker's control endpoint, session workers, and
// Redis-backed stats sampler together.
type Service struct {
	cfg     *gwconfig.Config
	pool    *queue.Pool
	redis   *cache.Client
	log     *logrus.Logger
	metrics *metrics.Registry
}

// New returns a ready-to-run Service. The Redis client is pinged
// eagerly, so an unreachable cache is a startup failure (spec.md §7),
// matching how scheduler.New eagerly pings the routing database.
func New(ctx context.Context, cfg *gwconfig.Config, log *logrus.Logger) (*Service, error) {
	redis := cache.New(cache.Config{
		Host: cfg.RedisHost, Port: cfg.RedisPort,
		Password: cfg.RedisPassword, DB: cfg.RedisDB,
	})
	if err := redis.Ping(ctx); err != nil {
		return nil, fmt.Errorf("mobroker: %w", err)
	}

	return &Service{
		cfg:     cfg,
		pool:    queue.NewPool(),
		redis:   redis,
		log:     log,
		metrics: metrics.New("lamb_mobroker"),
	}, nil
}

// Run binds the control endpoint and serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Listen, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mobroker: listen on %s: %w", addr, err)
	}

	ctrl := &session.Control{
		Listener:           ln,
		Log:                s.log,
		Spawn:              s.spawn,
		OnHandshakeTimeout: s.metrics.HandshakeTimeout.Inc,
	}

	go stats.Run(ctx, s.pool, metricsSink{next: s.redis, reg: s.metrics}, s.log)
	go s.metrics.Serve(ctx, s.cfg.MetricsAddr)

	return ctrl.Serve(ctx)
}

// Close releases the Redis connection pool.
func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) spawn(ctx context.Context, req wire.Request, ready chan<- session.Result) {
	peer := session.Peer{ID: req.ID, Type: req.Type, Addr: req.Addr}
	timeout := time.Duration(s.cfg.Timeout) * time.Second
	startPort := s.cfg.Port + 1

	switch req.Type {
	case wire.SessionPush, wire.SessionTest:
		handler := NewPushHandler(s.pool)
		session.RunProducer(ctx, peer, s.cfg.Listen, startPort, timeout, handler, ready, s.log)
	case wire.SessionPull:
		session.RunConsumer(ctx, peer, s.cfg.Listen, startPort, timeout, s.pool, ready, s.log)
	default:
		s.log.WithField("type", req.Type).Warn("mobroker: unknown session type, discarding")
	}
}
