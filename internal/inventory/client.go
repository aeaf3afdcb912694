package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"frontdesk-backend/internal/models"
)

// ErrNoNumberAvailable is returned when the carrier has nothing matching
// the requested area code.
var ErrNoNumberAvailable = errors.New("no number available for this area code")

// Client talks to the carrier inventory API.
type Client struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SearchNumbers queries the paid inventory. Omitted filters are not sent at
// all; the provider's ordering is preserved. An empty list is success.
func (c *Client) SearchNumbers(ctx context.Context, q models.NumberSearchQuery) ([]models.CandidateNumber, error) {
	params := url.Values{}
	params.Set("country", q.Country)
	params.Set("type", q.NumberType)
	if q.AreaCode != "" {
		params.Set("area_code", q.AreaCode)
	}
	if q.Contains != "" {
		params.Set("contains", q.Contains)
	}

	apiURL := fmt.Sprintf("%s/v1/available-numbers?%s", c.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory search failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory API error (status %d): %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Numbers []models.CandidateNumber `json:"numbers"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode inventory response: %w", err)
	}
	return payload.Numbers, nil
}

// InstantAssign asks the carrier for a free number in an area code and
// returns the assigned number.
func (c *Client) InstantAssign(ctx context.Context, areaCode, numberType string) (string, error) {
	payload := map[string]string{
		"area_code": areaCode,
		"type":      numberType,
	}
	jsonData, _ := json.Marshal(payload)

	apiURL := fmt.Sprintf("%s/v1/instant-assign", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create assign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("instant assign failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoNumberAvailable
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("inventory API error (status %d): %s", resp.StatusCode, string(body))
	}

	var assigned struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.Unmarshal(body, &assigned); err != nil {
		return "", fmt.Errorf("failed to decode assign response: %w", err)
	}
	if assigned.PhoneNumber == "" {
		return "", errors.New("inventory returned an empty number")
	}
	return assigned.PhoneNumber, nil
}
