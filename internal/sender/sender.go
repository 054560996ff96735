// Package sender performs one delivery attempt against the external gateway.
// The gateway contract is a POST of the message id, phone and text to
// <base>/<message id> with a bearer token; anything but 200 is a failure.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type HTTPSender struct {
	client  *http.Client
	urlBase string
	token   string
}

func NewHTTPSender(urlBase, token string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		client:  &http.Client{Timeout: timeout},
		urlBase: strings.TrimRight(urlBase, "/"),
		token:   token,
	}
}

type sendRequest struct {
	ID    int    `json:"id"`
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

func (s *HTTPSender) Send(ctx context.Context, messageID int, phone, text string) error {
	body, err := json.Marshal(sendRequest{ID: messageID, Phone: phone, Text: text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%d", s.urlBase, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send message %d: unexpected status %d", messageID, resp.StatusCode)
	}
	return nil
}
