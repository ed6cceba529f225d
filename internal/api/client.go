package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nhle/mailgate/internal/model"
)

// TransportError reports a request that produced no usable JSON body:
// the request could not be built or sent, or the body was not JSON.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err (or any error in its chain) is a
// TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Client is a thin JSON client for the email API. It sends no credentials
// of its own: the token blob travels in the request body. There is no
// retry and no client-side timeout; cancellation comes from the context.
type Client struct {
	baseURL    string
	emailsPath string
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, emailsPath string) *Client {
	if emailsPath == "" {
		emailsPath = "/api/emails"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		emailsPath: emailsPath,
		httpClient: &http.Client{},
	}
}

// FetchEmails posts the token blob to the emails endpoint and decodes the
// envelope. A success=false envelope is not an error.
func (c *Client) FetchEmails(ctx context.Context, tokens model.TokenBlob) (*model.EmailsResponse, error) {
	var resp model.EmailsResponse
	if err := c.Call(ctx, c.emailsPath, model.EmailsRequest{Tokens: tokens}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Call issues a POST with body as JSON when body is non-nil, otherwise a
// GET, and decodes the JSON response into result whatever the status code.
func (c *Client) Call(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	method := http.MethodGet
	var bodyReader io.Reader
	if body != nil {
		method = http.MethodPost
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Method: method, Path: path, Err: fmt.Errorf("marshaling request body: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("executing request %s %s: %w", method, path, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &TransportError{
			Method: method,
			Path:   path,
			Err:    fmt.Errorf("unmarshaling response from %s %s (status %d): %w", method, path, resp.StatusCode, err),
		}
	}

	return nil
}
