// Package grpc provides the gRPC health surface and its probe helpers.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthCallTimeout  = time.Second
	healthRetryInitial = 200 * time.Millisecond
	healthRetryMax     = time.Second
)

// WaitForHealth polls the health service until it reports SERVING or ctx
// ends. logf, when set, sees each distinct status once.
func WaitForHealth(ctx context.Context, conn *gogrpc.ClientConn, service string, logf func(string, ...any)) error {
	if conn == nil {
		return errors.New("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	client := grpc_health_v1.NewHealthClient(conn)
	delay := healthRetryInitial
	last := ""
	for {
		status, err := checkHealth(ctx, client, service)
		if status == grpc_health_v1.HealthCheckResponse_SERVING {
			logf("gRPC health %q is SERVING", service)
			return nil
		}
		observed := status.String()
		if err != nil {
			observed = err.Error()
		}
		if observed != last {
			logf("waiting for gRPC health %q: %s", service, observed)
			last = observed
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-timer.C:
		}
		delay = min(delay*2, healthRetryMax)
	}
}

func checkHealth(ctx context.Context, client grpc_health_v1.HealthClient, service string) (grpc_health_v1.HealthCheckResponse_ServingStatus, error) {
	callCtx, cancel := context.WithTimeout(ctx, healthCallTimeout)
	defer cancel()
	resp, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return grpc_health_v1.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
