// Package gitstore commits attachments to a Git-hosted content store
// through its HTTP contents API. Each upload becomes a single commit of
// the base64-encoded payload under a fixed path and branch.
package gitstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options configures a Client.
type Options struct {
	BaseURL  string // API root, e.g. https://api.github.com
	Token    string
	Owner    string
	Repo     string
	Branch   string
	BasePath string // repo-relative directory commits land under
}

// Client talks to the content store API.
type Client struct {
	httpClient *http.Client
	opts       Options
}

// New creates a new content store client.
func New(opts Options) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		opts:       opts,
	}
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
}

type putContentResponse struct {
	Content struct {
		DownloadURL string `json:"download_url"`
	} `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

// Save commits the payload under the configured path and branch and
// returns the retrieval URL. A non-2xx response surfaces the upstream
// message.
func (c *Client) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s/%s",
		strings.TrimSuffix(c.opts.BaseURL, "/"), c.opts.Owner, c.opts.Repo, c.opts.BasePath, name)

	body, err := json.Marshal(putContentRequest{
		Message: "Upload " + name,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  c.opts.Branch,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("content store request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read content store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return "", fmt.Errorf("content store rejected write (%d): %s", resp.StatusCode, msg)
	}

	var putResp putContentResponse
	if err := json.Unmarshal(respBody, &putResp); err == nil && putResp.Content.DownloadURL != "" {
		return putResp.Content.DownloadURL, nil
	}

	// Some deployments omit download_url; fall back to the raw path.
	return fmt.Sprintf("%s/%s/%s/raw/%s/%s/%s",
		strings.TrimSuffix(c.opts.BaseURL, "/"), c.opts.Owner, c.opts.Repo, c.opts.Branch, c.opts.BasePath, name), nil
}
