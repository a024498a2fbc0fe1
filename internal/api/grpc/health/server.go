package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	domain "github.com/oshokin/ward-monitor/internal/domain/alarm"
	"github.com/oshokin/ward-monitor/internal/logger"
)

// Health service names.
const (
	ServiceMonitor = "ward.monitor"
	ServiceAlarm   = "ward.alarm"
)

// Publisher keeps the health statuses in sync with the monitor.
// It satisfies the alarm engine's Observer interface.
type Publisher struct {
	health *grpchealth.Server
}

// NewPublisher creates a publisher with the loop stopped and no alarm.
func NewPublisher() *Publisher {
	p := &Publisher{health: grpchealth.NewServer()}

	p.health.SetServingStatus(ServiceMonitor, healthpb.HealthCheckResponse_NOT_SERVING)
	p.health.SetServingStatus(ServiceAlarm, healthpb.HealthCheckResponse_SERVING)

	return p
}

// Register adds the health service to a gRPC server.
func (p *Publisher) Register(s grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(s, p.health)
}

// SetRunning reports whether the control loop is running.
func (p *Publisher) SetRunning(running bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if running {
		status = healthpb.HealthCheckResponse_SERVING
	}

	p.health.SetServingStatus(ServiceMonitor, status)
	p.health.SetServingStatus("", status)
}

// AlarmChanged implements the alarm observer.
func (p *Publisher) AlarmChanged(ctx context.Context, state domain.State) {
	status := healthpb.HealthCheckResponse_SERVING
	if state.Active {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	logger.DebugKV(ctx, "Alarm status published", "active", state.Active, "reasons", state.Reasons.String())
	p.health.SetServingStatus(ServiceAlarm, status)
}

// Shutdown sets every service to NOT_SERVING and ends open watches.
func (p *Publisher) Shutdown() {
	p.health.Shutdown()
}

// Serve runs a gRPC server with the health service on lis until ctx is
// canceled.
func Serve(ctx context.Context, lis net.Listener, p *Publisher) error {
	ctx = logger.WithName(ctx, "status-endpoint")

	grpcServer := grpc.NewServer()
	p.Register(grpcServer)

	logger.InfoKV(ctx, "Alarm status endpoint listening", "listen_address", lis.Addr().String())

	// Closed after GracefulStop so Serve returns only once the server is down.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		p.Shutdown()
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// Listen opens a TCP listener on address.
func Listen(ctx context.Context, address string) (net.Listener, error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	return lis, nil
}
