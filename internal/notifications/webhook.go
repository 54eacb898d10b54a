package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	embedColor = 3447003
	fieldName  = "Pricing Pipeline"
)

type webhookBody struct {
	Content string         `json:"content"`
	Embeds  []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields"`
}

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// webhookSender posts Discord-compatible embeds.
type webhookSender struct {
	endpoint string
	boardURL string
	client   *http.Client
}

func (w *webhookSender) send(ctx context.Context, msg Message) error {
	description := "Please go to the link provided below."
	if msg.Link != "" {
		description = "Below is the link for the pricing artifact."
	}
	body := webhookBody{
		Content: msg.Body,
		Embeds: []webhookEmbed{{
			Title:       msg.Title,
			Description: description,
			Color:       embedColor,
			Fields: []webhookField{{
				Name:   fieldName,
				Value:  firstNonEmpty(msg.Link, w.boardURL),
				Inline: true,
			}},
		}},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
