package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported through grpc.health.v1.Health.
const ServiceName = "user.UserService"

// Pinger is anything whose liveness can be probed, usually the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f.
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthProbe drives a grpc health server from periodic pings.
type HealthProbe struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

// NewHealthProbe creates a probe that pings every interval. Each ping is
// bounded by half the interval, at most five seconds.
func NewHealthProbe(pinger Pinger, interval time.Duration, log *zap.Logger) *HealthProbe {
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &HealthProbe{
		server:   health.NewServer(),
		pinger:   pinger,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

// Server is the health service to register on a grpc.Server.
func (p *HealthProbe) Server() *health.Server {
	return p.server
}

// Check pings once and publishes the result for ServiceName and "".
func (p *HealthProbe) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := p.pinger.Ping(ctx); err != nil {
		p.log.Warn("health probe failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	p.server.SetServingStatus(ServiceName, st)
	p.server.SetServingStatus("", st)
	return st
}

// Run checks immediately and then every interval until ctx ends, at which
// point every service is marked NOT_SERVING.
func (p *HealthProbe) Run(ctx context.Context) {
	last := p.Check(ctx)
	p.log.Info("health probe started", zap.Duration("interval", p.interval), zap.Stringer("status", last))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.server.Shutdown()
			return
		case <-ticker.C:
			if st := p.Check(ctx); st != last {
				p.log.Info("health status changed", zap.Stringer("from", last), zap.Stringer("to", st))
				last = st
			}
		}
	}
}
