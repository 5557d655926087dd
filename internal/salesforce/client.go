package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIVersion is the REST API version the gateway targets.
const DefaultAPIVersion = "v62.0"

// Client is a Salesforce REST client scoped to the endpoints the gateway
// depends on: query, record get, record create, partial update. Every
// request carries a bearer token from the TokenManager; a 401/403 response
// invalidates the token and the request is retried exactly once.
type Client struct {
	instanceURL string
	apiVersion  string
	tokens      *TokenManager
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a REST client. A nil logger disables client logging.
func NewClient(instanceURL, apiVersion string, tokens *TokenManager, logger *slog.Logger) *Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		instanceURL: strings.TrimSuffix(instanceURL, "/"),
		apiVersion:  apiVersion,
		tokens:      tokens,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (c *Client) baseURL() string {
	return c.instanceURL + "/services/data/" + c.apiVersion
}

// Query runs a SOQL query. The query string is URL-encoded on the way out
// (space becomes +, quotes are percent-encoded).
func (c *Client) Query(ctx context.Context, soql string) (*QueryResult, error) {
	endpoint := c.baseURL() + "/query/?" + url.Values{"q": {soql}}.Encode()

	var result QueryResult
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRecord fetches one record by ID, restricted to the given fields.
func (c *Client) GetRecord(ctx context.Context, sobject, id string, fields []string) (Record, error) {
	endpoint := fmt.Sprintf("%s/sobjects/%s/%s", c.baseURL(), sobject, id)
	if len(fields) > 0 {
		endpoint += "?" + url.Values{"fields": {strings.Join(fields, ",")}}.Encode()
	}

	var rec Record
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &rec); err != nil {
		return nil, err
	}
	delete(rec, "attributes")
	return rec, nil
}

type createResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// CreateRecord creates a record and returns its new ID.
func (c *Client) CreateRecord(ctx context.Context, sobject string, data map[string]any) (string, error) {
	endpoint := fmt.Sprintf("%s/sobjects/%s/", c.baseURL(), sobject)

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encoding %s create: %w", sobject, err)
	}

	var resp createResponse
	if err := c.do(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		return "", err
	}
	c.logger.Info("record created", "sobject", sobject, "id", resp.ID)
	return resp.ID, nil
}

// UpdateRecord applies a partial update; a 204 is the success response.
func (c *Client) UpdateRecord(ctx context.Context, sobject, id string, data map[string]any) error {
	endpoint := fmt.Sprintf("%s/sobjects/%s/%s", c.baseURL(), sobject, id)

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s update: %w", sobject, err)
	}

	if err := c.do(ctx, http.MethodPatch, endpoint, payload, nil); err != nil {
		return err
	}
	c.logger.Info("record updated", "sobject", sobject, "id", id)
	return nil
}

// do sends an authenticated request. On a 401 or 403 the cached token is
// invalidated and the request retried once with a fresh token; a second
// rejection surfaces as an AuthError.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	status, respBody, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.logger.Warn("token rejected, re-authenticating", "status", status)
		c.tokens.Invalidate()
		status, respBody, err = c.send(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return &AuthError{Status: status, Body: string(respBody)}
		}
	}

	switch {
	case status >= 200 && status < 300:
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	case status == http.StatusNotFound:
		return &NotFoundError{Object: "record", Ref: endpoint}
	case status == http.StatusBadRequest:
		var details []APIErrorDetail
		if err := json.Unmarshal(respBody, &details); err == nil && len(details) > 0 {
			return &RemoteValidationError{Errors: details}
		}
		return &RemoteError{Status: status, Body: string(respBody)}
	default:
		return &RemoteError{Status: status, Body: string(respBody)}
	}
}

func (c *Client) send(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: method + " " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: method + " " + endpoint, Err: err}
	}
	return resp.StatusCode, respBody, nil
}
