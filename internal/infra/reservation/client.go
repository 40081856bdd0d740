package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"guestgate/internal/pkg/config"
	"guestgate/internal/pkg/errs"
)

// EntityState is one reservation-source entity: a state string plus the
// attribute bag the projector consumes. Unrecognized attributes ride along in
// Attributes for forensics.
type EntityState struct {
	EntityID   string                     `json:"entity_id"`
	State      string                     `json:"state"`
	Attributes map[string]json.RawMessage `json:"attributes"`
}

// Client fetches entity states from the reservation source's REST API with a
// bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.ReservationConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// GetEntityState fetches one entity. A 404 means the entity does not exist
// (nil, nil); transport and 5xx failures are errors so the poller can back
// off.
func (c *Client) GetEntityState(ctx context.Context, entityID string) (*EntityState, error) {
	url := fmt.Sprintf("%s/states/%s", c.baseURL, entityID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(err, "failed to build reservation request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, "reservation source request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errs.Newf("reservation source returned %d: %s", resp.StatusCode, string(body))
	}

	var state EntityState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, errs.Wrap(err, "failed to decode reservation state")
	}
	return &state, nil
}
