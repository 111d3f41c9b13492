package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

const maxBodyBytes = 1 << 20

// GraphClient talks to the Business Platform messages API. One client per
// process; the access token is shared across all endpoint ids.
type GraphClient struct {
	baseURL string
	token   string
	client  *http.Client
	media   *http.Client
}

func NewGraphClient(baseURL, token string) *GraphClient {
	return &GraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		media: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send delivers one message through the given endpoint. A transport failure
// returns a non-nil error; a provider rejection returns a DeliveryResult
// with Success=false and a nil error. Callers treat both as failed attempts.
func (c *GraphClient) Send(ctx context.Context, phoneNumberID, to string, content model.Content) (model.DeliveryResult, error) {
	body := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
	}

	switch content.Kind {
	case model.KindText:
		body["type"] = "text"
		body["text"] = map[string]string{"body": content.Text}
	case model.KindImage, model.KindDocument, model.KindAudio:
		ref := map[string]string{"id": content.MediaID}
		if content.Text != "" && content.Kind != model.KindAudio {
			ref["caption"] = content.Text
		}
		body["type"] = string(content.Kind)
		body[string(content.Kind)] = ref
	default:
		return model.DeliveryResult{}, fmt.Errorf("unsupported content kind: %q", content.Kind)
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return model.DeliveryResult{}, err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return model.DeliveryResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.DeliveryResult{}, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	res := model.DeliveryResult{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
	}
	if res.Success {
		var sr sendResponse
		if err := json.Unmarshal(respBody, &sr); err == nil && len(sr.Messages) > 0 {
			res.MessageID = sr.Messages[0].ID
		}
	}
	return res, nil
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// MediaURL resolves a media id to its short-lived download URL.
func (c *GraphClient) MediaURL(ctx context.Context, mediaID string) (url, mimeType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+mediaID, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("media lookup status %d body=%q", resp.StatusCode, truncate(string(body), 200))
	}

	var mi mediaInfo
	if err := json.Unmarshal(body, &mi); err != nil {
		return "", "", fmt.Errorf("failed to decode media info: %w body=%q", err, truncate(string(body), 200))
	}
	if mi.URL == "" {
		return "", "", fmt.Errorf("media info missing url body=%q", truncate(string(body), 200))
	}
	return mi.URL, mi.MimeType, nil
}

// Download fetches media content from a URL returned by MediaURL. The URL is
// only valid with the same bearer token.
func (c *GraphClient) Download(ctx context.Context, url string) (data []byte, mimeType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.media.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return nil, "", fmt.Errorf("media download status %d body=%q", resp.StatusCode, truncate(string(body), 200))
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

type uploadResponse struct {
	ID string `json:"id"`
}

// Upload pushes media content under the relay's own credentials and returns
// the new media id, usable in a Send.
func (c *GraphClient) Upload(ctx context.Context, phoneNumberID string, data []byte, mimeType string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", err
	}
	if err := mw.WriteField("type", mimeType); err != nil {
		return "", err
	}

	part, err := mw.CreateFormFile("file", "media")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.media.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media upload status %d body=%q", resp.StatusCode, truncate(string(body), 200))
	}

	var ur uploadResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w body=%q", err, truncate(string(body), 200))
	}
	if ur.ID == "" {
		return "", fmt.Errorf("missing media id in upload response body=%q", truncate(string(body), 200))
	}
	return ur.ID, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
