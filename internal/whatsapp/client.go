// Package whatsapp sends text messages through a GOWA (go-whatsapp-web-multidevice)
// gateway. A session names the paired device a message goes out from.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medcrm_backend/platform/config"
	"medcrm_backend/platform/logger"
	"medcrm_backend/platform/phone"
)

// ErrNoRecipient is returned when the phone number normalises to nothing.
var ErrNoRecipient = errors.New("whatsapp: empty recipient phone")

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient returns nil when no gateway URL is configured.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" {
		return nil
	}
	return NewClientWithHTTP(cfg.GetWhatsAppURL(), cfg.GetWhatsAppKey(), &http.Client{Timeout: 10 * time.Second}, log)
}

// NewClientWithHTTP builds a client on an explicit http.Client.
func NewClientWithHTTP(baseURL, apiKey string, hc *http.Client, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    hc,
		log:     log,
	}
}

// Send delivers text to phoneNumber from session. An empty session lets the
// gateway pick its default device.
func (c *Client) Send(ctx context.Context, session, phoneNumber, text string) error {
	if c == nil {
		return nil
	}

	normalized := phone.Normalize(phoneNumber)
	if normalized == "" {
		return ErrNoRecipient
	}

	body, err := json.Marshal(gowaRequest{Phone: normalized, Message: text})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/send/message", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(c.apiKey))
	}
	if session != "" {
		req.Header.Set("X-Device-Id", session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp sent via gowa", "phone", normalized, "region", phone.Region(normalized), "session", session)
	return nil
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(apiKey))
	return "Basic " + encoded
}
