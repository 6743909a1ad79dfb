// Package brevo implements the delivery provider client against the
// Brevo v3 REST API. A Client is a cheap per-call value: the scheduler
// constructs one per dispatch from the account's credential, so no
// sender state is shared across tenants.
package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.brevo.com/v3"

// Sender identifies the from-address attached to every send.
type Sender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Client struct {
	apiKey     string
	sender     Sender
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(apiKey, senderEmail, senderName string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		sender:  Sender{Email: senderEmail, Name: senderName},
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpsertContact creates or updates a contact on the provider side.
// A 409 means the contact already exists, which is fine for our
// purposes: the contact list is only scratch state for one send.
func (c *Client) UpsertContact(ctx context.Context, email, name string) error {
	first, last := splitName(name)
	attributes := map[string]string{"FIRSTNAME": first}
	if last != "" {
		attributes["LASTNAME"] = last
	}

	payload := map[string]interface{}{
		"email":         email,
		"attributes":    attributes,
		"updateEnabled": true,
	}

	resp, body, err := c.do(ctx, http.MethodPost, "/contacts", payload)
	if err != nil {
		return fmt.Errorf("failed to upsert contact: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusNoContent, http.StatusConflict:
		return nil
	default:
		return fmt.Errorf("provider rejected contact upsert: %s", body)
	}
}

// SendEmail submits one transactional message and returns the provider
// message id.
func (c *Client) SendEmail(ctx context.Context, to, toName, subject, htmlBody string) (string, error) {
	payload := map[string]interface{}{
		"sender":      c.sender,
		"to":          []map[string]string{{"email": to, "name": toName}},
		"subject":     subject,
		"htmlContent": htmlBody,
	}

	resp, body, err := c.do(ctx, http.MethodPost, "/smtp/email", payload)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		var out struct {
			MessageID string `json:"messageId"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("failed to decode send response: %w", err)
		}
		return out.MessageID, nil
	default:
		return "", fmt.Errorf("provider rejected send: %s", body)
	}
}

// MessageEvents returns the event names recorded for a message, or nil
// when the provider has nothing yet. Errors here are transient from the
// caller's point of view; the confirmation poll simply tries again.
func (c *Client) MessageEvents(ctx context.Context, messageID string) ([]string, error) {
	path := "/smtp/emails/" + url.PathEscape(messageID)
	resp, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query message status: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var out struct {
		Events []struct {
			Name string `json:"name"`
		} `json:"events"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode message status: %w", err)
	}

	names := make([]string, 0, len(out.Events))
	for _, e := range out.Events {
		names = append(names, e.Name)
	}
	return names, nil
}

// DeleteContact removes a contact from the provider's store. A 404
// means it is already gone, which counts as success.
func (c *Client) DeleteContact(ctx context.Context, email string) error {
	path := "/contacts/" + url.PathEscape(email)
	resp, body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("provider rejected contact delete: %s", body)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, body, nil
}

func splitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}
