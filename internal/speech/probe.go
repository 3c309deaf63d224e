package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultProbeTimeout bounds how long Probe waits for the backend.
const DefaultProbeTimeout = 3 * time.Second

// Probe dials the recognition backend and waits for the connection to
// become ready, so a misconfigured endpoint surfaces before a session
// starts rather than mid-utterance.
func Probe(ctx context.Context, endpoint string, timeout time.Duration) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return errors.New("speech endpoint is empty")
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return fmt.Errorf("dial speech backend %q: %w", endpoint, err)
	}
	defer func() { _ = conn.Close() }()

	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn.Connect()
	return waitForReady(readyCtx, conn)
}

// waitForReady blocks until the connection enters Ready or fails.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection entered shutdown state")
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("grpc readiness wait timed out in state %s", state.String())
		}
	}
}
