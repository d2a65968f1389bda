package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// HTTPNotifier posts device messages to a remote endpoint. Each message
// carries a freshly generated ID so the receiving side can deduplicate.
type HTTPNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

type messagePayload struct {
	ID  string `json:"id"`
	Msg string `json:"msg"`
}

func NewHTTPNotifier(baseURL, token string, timeout time.Duration) *HTTPNotifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPNotifier{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (n *HTTPNotifier) SendMessage(ctx context.Context, deviceID, msg string) error {
	body, err := json.Marshal(messagePayload{
		ID:  uuid.New().String(),
		Msg: msg,
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/devices/%s/messages", n.baseURL, url.PathEscape(deviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("message request failed: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}
