package words

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel = "gemini-1.5-flash"
)

// GeminiConfig configures the Gemini generateContent endpoint.
type GeminiConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type Gemini struct {
	cfg GeminiConfig
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultGeminiURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultGeminiModel
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Gemini{cfg: cfg}
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return "", errors.New("gemini api key is required")
	}

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := g.cfg.BaseURL + "/v1beta/models/" + url.PathEscape(g.cfg.Model) +
		":generateContent?key=" + url.QueryEscape(g.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		// The request URL carries the key; keep it out of the error.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet := data
		if len(snippet) > 4096 {
			snippet = snippet[:4096]
		}
		return "", fmt.Errorf("generate request status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text")
	if !text.Exists() || strings.TrimSpace(text.String()) == "" {
		return "", errors.New("generate response contains no text")
	}

	return text.String(), nil
}
