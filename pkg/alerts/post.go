package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// UserAgent identifies outbound requests made by the service.
const UserAgent = "AI-Buzz-Tools/2.0"

const (
	sendTimeout  = 10 * time.Second
	maxErrorBody = 512
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: sendTimeout}
}

func encode(name string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return body, nil
}

// post sends body as JSON and treats any non-2xx answer as an error
// carrying the start of the response body.
func post(ctx context.Context, client *http.Client, name, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", name, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s alert: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if text := strings.TrimSpace(string(snippet)); text != "" {
		return fmt.Errorf("%s returned status %d: %s", name, resp.StatusCode, text)
	}
	return fmt.Errorf("%s returned status %d", name, resp.StatusCode)
}
