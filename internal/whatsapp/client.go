// Package whatsapp is a minimal client for the WhatsApp Business Cloud API:
// outbound text messages and media downloads via the Graph API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"farmbot/internal/config"
	"farmbot/internal/domain"
	"farmbot/internal/provider"
)

// maxMediaBytes caps media downloads.
const maxMediaBytes = 16 << 20

type Client struct {
	cfg    config.WhatsAppConfig
	client *http.Client
	logger *slog.Logger
}

type ClientConfig struct {
	Config config.WhatsAppConfig
	Logger *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	c := cfg.Config
	if c.APIBase == "" {
		c.APIBase = config.DefaultGraphAPIBase
	}
	return &Client{
		cfg:    c,
		client: provider.SharedHTTPClient(30 * time.Second),
		logger: cfg.Logger,
	}
}

// SendText delivers a text message via the Cloud API send endpoint. One POST,
// no retry; a non-2xx response is an error for the caller to log.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	url := fmt.Sprintf("%s/%s/messages", c.cfg.APIBase, c.cfg.PhoneNumberID)

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Info("message sent", "to", to, "status", resp.StatusCode)
	return nil
}

type mediaMetadata struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
	ID       string `json:"id"`
}

// DownloadMedia resolves a media ID to bytes plus MIME type: an authenticated
// metadata lookup followed by a fetch of the returned temporary URL. Either
// failure propagates; the URL and token are never logged.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) (*domain.MediaPayload, error) {
	meta, err := c.lookupMedia(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("media metadata %s: %w", mediaID, err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", meta.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media bytes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media host returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("read media bytes: %w", err)
	}

	c.logger.Debug("media downloaded", "media_id", mediaID, "bytes", len(data), "mime", meta.MimeType)
	return &domain.MediaPayload{Data: data, MimeType: meta.MimeType}, nil
}

func (c *Client) lookupMedia(ctx context.Context, mediaID string) (*mediaMetadata, error) {
	url := fmt.Sprintf("%s/%s", c.cfg.APIBase, mediaID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whatsapp API %d: %s", resp.StatusCode, string(respBody))
	}

	var meta mediaMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if meta.URL == "" {
		return nil, fmt.Errorf("metadata has no download URL")
	}
	return &meta, nil
}
