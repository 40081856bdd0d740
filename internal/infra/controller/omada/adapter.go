package omada

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"guestgate/internal/infra/controller"
	"guestgate/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

const (
	// External portal authorization type per the Omada protocol.
	authTypeExternalPortal = 4

	retryInitialInterval = time.Second
	retryMaxAttempts     = 4
)

// Adapter drives a TP-Omada controller. Each call retries transient failures
// with 1s/2s/4s/8s backoff before surfacing controller-unavailable to the
// retry queue.
type Adapter struct {
	client *Client
	siteID string
	logger *slog.Logger
}

var _ controller.Controller = (*Adapter)(nil)

func NewAdapter(client *Client, siteID string, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, siteID: siteID, logger: logger}
}

type authorizeResult struct {
	ClientID   string `json:"clientId"`
	Authorized bool   `json:"authorized"`
}

func (a *Adapter) Authorize(ctx context.Context, params controller.AuthorizeParams) (string, error) {
	payload := map[string]any{
		"clientMac": params.MAC,
		"site":      a.siteID,
		"time":      params.End.UnixMicro(),
		"authType":  authTypeExternalPortal,
		"upKbps":    params.UpKbps,
		"downKbps":  params.DownKbps,
	}
	if params.Radio.APMac != "" {
		payload["apMac"] = params.Radio.APMac
	}
	if params.Radio.GatewayMac != "" {
		payload["gatewayMac"] = params.Radio.GatewayMac
	}
	if params.Radio.SSIDName != "" {
		payload["ssidName"] = params.Radio.SSIDName
	}
	if params.Radio.VID != nil {
		payload["vid"] = *params.Radio.VID
	}
	if params.Radio.RadioID != nil {
		payload["radioId"] = *params.Radio.RadioID
	}

	raw, err := a.postWithRetry(ctx, "/extPortal/auth", payload)
	if err != nil {
		return "", err
	}

	var result authorizeResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			a.logger.Warn("unparseable authorize result, falling back to MAC as grant id", "error", err)
		}
	}
	if result.ClientID == "" {
		result.ClientID = params.MAC
	}
	return result.ClientID, nil
}

func (a *Adapter) Revoke(ctx context.Context, mac string) error {
	payload := map[string]any{
		"clientMac": mac,
		"site":      a.siteID,
	}
	_, err := a.postWithRetry(ctx, "/extPortal/revoke", payload)
	if err != nil {
		// Revoking a device the controller no longer knows is success.
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
			return nil
		}
		return err
	}
	return nil
}

// Extend re-authorizes with the new expiry; Omada has no separate update
// endpoint.
func (a *Adapter) Extend(ctx context.Context, mac string, newEnd time.Time) error {
	_, err := a.Authorize(ctx, controller.AuthorizeParams{MAC: mac, End: newEnd})
	return err
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.client.Login(ctx)
}

func (a *Adapter) postWithRetry(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	var result json.RawMessage

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempts := 0
	operation := func() error {
		attempts++
		raw, err := a.client.Post(ctx, endpoint, payload)
		if err != nil {
			if !isTransient(err) {
				return backoff.Permanent(err)
			}
			if attempts >= retryMaxAttempts {
				return backoff.Permanent(errs.Mark(err, errs.ErrRetryExhausted))
			}
			a.logger.Warn("controller call failed, retrying",
				"endpoint", endpoint,
				"attempt", attempts,
				"error", err)
			return err
		}
		result = raw
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		if errors.Is(err, errs.ErrRetryExhausted) || isTransient(err) {
			return nil, errs.Mark(err, errs.ErrControllerUnavailable)
		}
		return nil, err
	}
	return result, nil
}

func isTransient(err error) bool {
	return errors.Is(err, errs.ErrControllerUnavailable) || errors.Is(err, errs.ErrControllerTimeout)
}

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}
