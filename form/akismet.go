package form

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AkismetClient is a thin REST adapter for the Akismet comment-check API.
// One client is built per request from the app's credentials; the blog URL
// is the app's registered URL.
type AkismetClient struct {
	key        string
	blog       string
	baseURL    string
	httpClient *http.Client
}

// NewAkismetClient builds a client against host. A host carrying a scheme
// (e.g. a test server URL) is used verbatim as the base URL; otherwise
// https is assumed.
func NewAkismetClient(key, blog, host string, timeout time.Duration) *AkismetClient {
	baseURL := host
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	return &AkismetClient{
		key:        key,
		blog:       blog,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CheckSpam submits the payload for classification. The service answers
// with a literal "true" or "false" body; anything else is an error.
func (c *AkismetClient) CheckSpam(ctx context.Context, payload SpamPayload) (bool, error) {
	values := url.Values{}
	values.Set("api_key", c.key)
	values.Set("blog", c.blog)
	if payload.IP != "" {
		values.Set("user_ip", payload.IP)
	}
	if payload.UserAgent != "" {
		values.Set("user_agent", payload.UserAgent)
	}
	if payload.Content != "" {
		values.Set("comment_content", payload.Content)
	}
	for key, value := range payload.Other {
		values.Set(key, value)
	}

	body, err := c.post(ctx, "/1.1/comment-check", values)
	if err != nil {
		return false, err
	}

	switch body {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected spam check response: %q", body)
	}
}

// VerifyCredentials checks the API key against the service. Used for
// diagnostics after a failed spam check.
func (c *AkismetClient) VerifyCredentials(ctx context.Context) (bool, error) {
	values := url.Values{}
	values.Set("key", c.key)
	values.Set("blog", c.blog)

	body, err := c.post(ctx, "/1.1/verify-key", values)
	if err != nil {
		return false, err
	}

	return body == "valid", nil
}

func (c *AkismetClient) post(ctx context.Context, path string, values url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build spam service request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spam service request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read spam service response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spam service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return strings.TrimSpace(string(body)), nil
}
