// Package sensor queries the occupancy detection service that counts people in a room.
package sensor

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

	"github.com/oshokin/room-automation/internal/clock"
	"github.com/oshokin/room-automation/internal/domain/room"
	"github.com/oshokin/room-automation/internal/version"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

var (
	// ErrUnexpectedStatus is wrapped for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNegativeCount is wrapped when the service reports fewer than zero people.
	ErrNegativeCount = errors.New("negative human count")
)

// QueryError is any failed occupancy query. Callers log it and try again on
// the next poll; it never ends monitoring.
type QueryError struct {
	// RoomID is the queried room.
	RoomID string
	// Err is the cause.
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query occupancy of room %s: %v", e.RoomID, e.Err)
}

// Unwrap exposes the cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

type detectRequest struct {
	RoomID string `json:"roomId"`
}

type detectResponse struct {
	HumanCount *int `json:"human_count"`
}

// Client calls POST {baseURL}/detect.
type Client struct {
	// endpoint is the full detect URL.
	endpoint string
	// httpClient carries the per-request timeout.
	httpClient *http.Client
	// clock stamps samples.
	clock clock.Clock
}

// New creates a sensor client for the service at baseURL.
func New(baseURL string, timeout time.Duration, clk clock.Clock) *Client {
	if clk == nil {
		clk = clock.Real()
	}

	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/detect",
		httpClient: &http.Client{Timeout: timeout},
		clock:      clk,
	}
}

// Occupancy returns the current number of people in roomID.
// Every failure is a *QueryError.
func (c *Client) Occupancy(ctx context.Context, roomID string) (room.OccupancySample, error) {
	count, err := c.detect(ctx, roomID)
	if err != nil {
		return room.OccupancySample{}, &QueryError{RoomID: roomID, Err: err}
	}

	return room.OccupancySample{
		RoomID:     roomID,
		HumanCount: count,
		ObservedAt: c.clock.Now(),
	}, nil
}

func (c *Client) detect(ctx context.Context, roomID string) (int, error) {
	encoded, err := json.Marshal(detectRequest{RoomID: roomID})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))

	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, response.StatusCode, bytes.TrimSpace(body))
	}

	var decoded detectResponse
	if err = json.Unmarshal(body, &decoded); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	if decoded.HumanCount == nil {
		return 0, errors.New("decode response: human_count is missing")
	}

	if *decoded.HumanCount < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeCount, *decoded.HumanCount)
	}

	return *decoded.HumanCount, nil
}
