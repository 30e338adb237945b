package healthatom

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agendalink/gateway/pkg/errors"
)

const defaultTimeout = 15 * time.Second

// errBranchUnsupported marks the upstream 412 answer: the branch is
// not served by the API that was asked. The dual adapter treats it as
// a cue to try the sibling API.
var errBranchUnsupported = stderrors.New("branch not served by this api")

// wireClient talks to one HealthAtom API. Credentials travel per call,
// so a single wireClient serves every client configured for the
// integration.
type wireClient struct {
	baseURL string
	http    *http.Client
	apiName string
}

func newWireClient(baseURL, apiName string) *wireClient {
	return &wireClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		apiName: apiName,
	}
}

func (c *wireClient) get(ctx context.Context, apiKey, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, apiKey, http.MethodGet, u, nil, out)
}

func (c *wireClient) post(ctx context.Context, apiKey, path string, body, out interface{}) error {
	return c.do(ctx, apiKey, http.MethodPost, c.baseURL+path, body, out)
}

func (c *wireClient) put(ctx context.Context, apiKey, path string, body, out interface{}) error {
	return c.do(ctx, apiKey, http.MethodPut, c.baseURL+path, body, out)
}

func (c *wireClient) do(ctx context.Context, apiKey, method, rawURL string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Internal(fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return errors.Internal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Token "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.UpstreamUnavailable(fmt.Sprintf("%s request failed", c.apiName), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.UpstreamUnavailable(fmt.Sprintf("%s response unreadable", c.apiName), err)
	}

	if resp.StatusCode >= 400 {
		return c.mapStatus(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.UpstreamUnavailable(fmt.Sprintf("%s returned malformed json", c.apiName), err)
	}
	return nil
}

func (c *wireClient) mapStatus(status int, raw []byte) error {
	msg := extractMessage(raw)
	switch {
	case status == http.StatusPreconditionFailed:
		return errors.UpstreamRejected(fmt.Sprintf("%s: %s", c.apiName, msg), errBranchUnsupported)
	case status == http.StatusNotFound:
		return errors.New(errors.KindNotFound, fmt.Sprintf("%s: %s", c.apiName, msg), nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Unauthorized(fmt.Errorf("%s rejected the credentials", c.apiName))
	case status == http.StatusConflict:
		return errors.Conflict(fmt.Sprintf("%s: %s", c.apiName, msg), nil)
	case status >= 500:
		return errors.UpstreamUnavailable(fmt.Sprintf("%s unavailable (%d)", c.apiName, status), nil)
	default:
		return errors.UpstreamRejected(fmt.Sprintf("%s: %s", c.apiName, msg), nil)
	}
}

// extractMessage digs the human message out of the upstream error
// envelope, which is not consistent across endpoints.
func extractMessage(raw []byte) string {
	var e apiError
	if err := json.Unmarshal(raw, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		switch v := e.Error.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]interface{}:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 300 {
		return s
	}
	return "request rejected"
}
