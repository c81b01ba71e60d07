package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/essayehotmane/halabsaudi-service-mobile/pkg/domain"
)

// CredentialSource supplies the current bearer credential for authorized
// calls. The session manager implements it; the client reads the credential
// fresh on every call and owns no session state itself.
type CredentialSource interface {
	CurrentCredential() (string, bool)
}

// Client is the Halab API client. Every call is a single attempt: no retries
// and no caching, because the discount endpoints are not idempotent and a
// silent retry could double-apply.
type Client struct {
	baseURL    string
	creds      CredentialSource
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string, creds CredentialSource) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LoginRequest is the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the success shape of the login endpoint.
type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login exchanges credentials for a token and user record. It is the one
// unauthenticated call; no bearer header is sent.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "/login", req, &out, false); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &out, nil
}

// GetService fetches the service record, wrapped by the backend in a data
// envelope.
func (c *Client) GetService(ctx context.Context, serviceID int) (*domain.Service, error) {
	var out struct {
		Data domain.Service `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/service/"+strconv.Itoa(serviceID), nil, &out, true); err != nil {
		return nil, fmt.Errorf("client.GetService: %w", err)
	}
	return &out.Data, nil
}

// CheckCode asks the backend whether a discount code is valid.
// "codeIsValide" is the backend's spelling.
func (c *Client) CheckCode(ctx context.Context, code string) (bool, error) {
	var out struct {
		CodeIsValid bool `json:"codeIsValide"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/discount/check/"+url.PathEscape(code), nil, &out, true); err != nil {
		return false, fmt.Errorf("client.CheckCode: %w", err)
	}
	return out.CodeIsValid, nil
}

// ApplyDiscount applies a discount code to a service. The backend signals
// success through the isValid field rather than the status code alone.
func (c *Client) ApplyDiscount(ctx context.Context, code string, serviceID int) (bool, error) {
	var out struct {
		IsValid bool `json:"isValid"`
	}
	path := "/discount/" + url.PathEscape(code) + "/service/" + strconv.Itoa(serviceID)
	if err := c.doRequest(ctx, http.MethodPut, path, struct{}{}, &out, true); err != nil {
		return false, fmt.Errorf("client.ApplyDiscount: %w", err)
	}
	return out.IsValid, nil
}

// UpdateService persists a new discount percentage for a service. Any 2xx
// response is success.
func (c *Client) UpdateService(ctx context.Context, serviceID, discount int) error {
	body := map[string]int{"id": serviceID, "discount": discount}
	if err := c.doRequest(ctx, http.MethodPut, "/service", body, nil, true); err != nil {
		return fmt.Errorf("client.UpdateService: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any, authed bool) error {
	var token string
	if authed {
		cred, ok := c.creds.CurrentCredential()
		if !ok {
			return ErrUnauthenticated
		}
		token = cred
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // drain for connection reuse
		return &AuthRejectedError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &APIError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
