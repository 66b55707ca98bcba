// Package actuator sends device commands to room hardware.
//
// HTTPActuator talks to a hardware gateway; LogActuator only records the
// commands and stands in where no gateway is deployed.
package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/oshokin/room-automation/internal/domain/room"
	"github.com/oshokin/room-automation/internal/logger"
	"github.com/oshokin/room-automation/internal/version"
)

// ErrCommandRejected is wrapped when the gateway answers with a non-2xx status.
var ErrCommandRejected = errors.New("command rejected by gateway")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// Actuator applies one command.
type Actuator interface {
	Apply(ctx context.Context, cmd room.Command) error
}

// New returns an HTTPActuator for url, or a LogActuator when url is empty.
func New(url string, timeout time.Duration) Actuator {
	if url == "" {
		return LogActuator{}
	}

	return NewHTTPActuator(url, timeout)
}

// LogActuator logs every command and always succeeds.
type LogActuator struct{}

// Apply implements Actuator.
func (LogActuator) Apply(ctx context.Context, cmd room.Command) error {
	logger.InfoKV(ctx, "Device command",
		"room_id", cmd.RoomID,
		"device", cmd.Device,
		"action", cmd.Action)

	return nil
}

// HTTPActuator posts commands to {url}/commands.
type HTTPActuator struct {
	// endpoint is the full commands URL.
	endpoint string
	// httpClient carries the per-request timeout.
	httpClient *http.Client
}

// NewHTTPActuator creates an actuator for the gateway at baseURL.
func NewHTTPActuator(baseURL string, timeout time.Duration) *HTTPActuator {
	return &HTTPActuator{
		endpoint:   strings.TrimRight(baseURL, "/") + "/commands",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Apply implements Actuator.
func (a *HTTPActuator) Apply(ctx context.Context, cmd room.Command) error {
	encoded, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))

	response, err := a.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("send %s %s to room %s: %w", cmd.Device, cmd.Action, cmd.RoomID, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))

		return fmt.Errorf("%w: %s %s in room %s: status %d: %s",
			ErrCommandRejected, cmd.Device, cmd.Action, cmd.RoomID, response.StatusCode, bytes.TrimSpace(body))
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxErrorBody))

	return nil
}
