package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/freight-reader/constants"
	"github.com/joseph-ayodele/freight-reader/internal/freight"
	"github.com/joseph-ayodele/freight-reader/internal/vision"
)

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

// APIError is the error envelope of the Messages API.
type APIError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractPage implements vision.PageExtractor against the Messages API.
func (c *Client) ExtractPage(ctx context.Context, img vision.PageImage) (freight.RawPageExtraction, []byte, error) {
	if len(img.Data) == 0 || strings.TrimSpace(img.ContentType) == "" {
		return freight.RawPageExtraction{}, nil, vision.ErrMissingImage
	}
	mediaType := constants.NormalizeContentType(img.ContentType)

	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("vision.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"page", img.Page,
		"content_type", mediaType,
		"bytes", len(img.Data),
	)
	if !constants.IsAllowedContentType(mediaType) {
		c.logger.Warn("vision.extract.unusual_content_type", "req_id", rid, "content_type", mediaType)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Warn("vision.extract.rate_wait_aborted", "req_id", rid, "page", img.Page, "error", err)
			return freight.RawPageExtraction{}, nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body := messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0,
		System:      vision.SystemPrompt,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{Type: "text", Text: vision.UserPrompt},
				{Type: "image", Source: &imageSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      base64.StdEncoding.EncodeToString(img.Data),
				}},
			},
		}},
	}

	var out messagesResponse
	var apiErr APIError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/messages")
	if err != nil {
		c.logger.Error("vision.extract.http_error",
			"req_id", rid, "page", img.Page, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return freight.RawPageExtraction{}, nil, fmt.Errorf("anthropic http error: %w", err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		c.logger.Error("vision.extract.api_error",
			"req_id", rid, "page", img.Page, "status", resp.StatusCode(), "error", msg,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return freight.RawPageExtraction{}, resp.Body(), fmt.Errorf("anthropic status %d: %s", resp.StatusCode(), msg)
	}

	text, ok := firstText(out.Content)
	if !ok {
		c.logger.Error("vision.extract.no_text", "req_id", rid, "page", img.Page)
		return freight.RawPageExtraction{}, resp.Body(), vision.ErrNoText
	}
	raw := vision.StripCodeFence([]byte(text))

	if err := vision.ValidateRawPage(raw); err != nil {
		c.logger.Warn("vision.decode.schema_mismatch", "req_id", rid, "page", img.Page, "error", err)
	}
	page, err := vision.DecodeRawPage(img.Page, raw)
	if err != nil {
		c.logger.Error("vision.extract.decode_error",
			"req_id", rid, "page", img.Page, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return freight.RawPageExtraction{}, raw, err
	}

	c.logger.Info("vision.extract.ok",
		"req_id", rid,
		"page", img.Page,
		"document_type", page.DocumentType.Str,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return page, raw, nil
}

func firstText(blocks []contentBlock) (string, bool) {
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			return b.Text, true
		}
	}
	return "", false
}
