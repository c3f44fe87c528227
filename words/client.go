package words

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GeneratePath is where the server exposes Supply over HTTP.
const GeneratePath = "/api/generate-word"

// Client requests pairs from a remote word server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: httpClient,
	}
}

// Supply posts theme to the server. Transport errors, non-200 responses and
// unusable pairs are all returned as errors.
func (c *Client) Supply(ctx context.Context, theme string) (Pair, error) {
	body, err := json.Marshal(map[string]string{"theme": theme})
	if err != nil {
		return Pair{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return Pair{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return Pair{}, fmt.Errorf("request word pair: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return Pair{}, fmt.Errorf("word server status %d: %s", res.StatusCode, strings.TrimSpace(string(text)))
	}

	var p Pair
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&p); err != nil {
		return Pair{}, fmt.Errorf("decode word pair: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Pair{}, errors.Join(errors.New("word server returned an unusable pair"), err)
	}

	return p.trimmed(), nil
}
