package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GCM result error codes that mean the registration id is permanently dead
// and must be dropped from the registry. Transient codes (Unavailable,
// InternalServerError) are left alone; the next mutation retries naturally.
const (
	gcmErrNotRegistered       = "NotRegistered"
	gcmErrInvalidRegistration = "InvalidRegistration"
)

// GCMClient implements Provider against the GCM JSON endpoint.
type GCMClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewGCMClient(endpoint, apiKey string) *GCMClient {
	return &GCMClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{},
	}
}

type gcmRequest struct {
	RegistrationIDs []string        `json:"registration_ids"`
	Data            json.RawMessage `json:"data"`
	DelayWhileIdle  bool            `json:"delay_while_idle"`
}

type gcmResult struct {
	MessageID      string `json:"message_id"`
	RegistrationID string `json:"registration_id"`
	Error          string `json:"error"`
}

type gcmResponse struct {
	Results []gcmResult `json:"results"`
}

// Multicast posts one JSON message to all regIDs and converts the per-id
// results into a DeliveryReport. Results align with regIDs by index.
func (c *GCMClient) Multicast(ctx context.Context, regIDs []string, payload []byte) (*DeliveryReport, error) {
	body, err := json.Marshal(gcmRequest{
		RegistrationIDs: regIDs,
		Data:            payload,
		DelayWhileIdle:  true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gcm: unexpected status %s; body: %s", resp.Status, string(b))
	}

	var parsed gcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("gcm: decoding response: %w", err)
	}

	report := &DeliveryReport{}
	for i, result := range parsed.Results {
		if i >= len(regIDs) {
			break
		}
		if result.RegistrationID != "" {
			report.Canonical = append(report.Canonical, CanonicalPair{Old: regIDs[i], New: result.RegistrationID})
			continue
		}
		if result.Error == gcmErrNotRegistered || result.Error == gcmErrInvalidRegistration {
			report.Invalid = append(report.Invalid, regIDs[i])
		}
	}
	return report, nil
}
