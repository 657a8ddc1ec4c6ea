package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dealflow-engine/internal/domain"
	"dealflow-engine/internal/fetch"
	"dealflow-engine/internal/metrics"
)

// Client calls an OpenAI-compatible chat completions endpoint in JSON mode.
type Client struct {
	base        string
	key         string
	model       string
	temperature float64
	hc          *http.Client
	limiter     *fetch.HostLimiter
}

type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Limiter     *fetch.HostLimiter
}

func New(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return &Client{
		base:        strings.TrimRight(o.BaseURL, "/"),
		key:         o.APIKey,
		model:       o.Model,
		temperature: o.Temperature,
		hc:          &http.Client{Timeout: o.Timeout},
		limiter:     o.Limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat any           `json:"response_format"`
	Messages       []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Review makes exactly one model call for one candidate.
func (c *Client) Review(ctx context.Context, in Input) (domain.ReviewVerdict, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Temperature:    c.temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(in)},
		},
	})
	if err != nil {
		return domain.ReviewVerdict{}, err
	}

	u := c.base + "/chat/completions"
	if err := c.limiter.WaitURL(ctx, u); err != nil {
		return domain.ReviewVerdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return domain.ReviewVerdict{}, fmt.Errorf("review request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	res, err := c.hc.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("review", "error").Inc()
		return domain.ReviewVerdict{}, fmt.Errorf("%w: review post: %v", domain.ErrUpstream, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return domain.ReviewVerdict{}, fmt.Errorf("%w: review read: %v", domain.ErrUpstream, err)
	}
	if res.StatusCode >= 300 {
		metrics.ProviderRequests.WithLabelValues("review", fmt.Sprintf("http_%d", res.StatusCode)).Inc()
		return domain.ReviewVerdict{}, fmt.Errorf("%w: review status %d: %s",
			domain.ErrUpstream, res.StatusCode, strings.TrimSpace(string(raw[:min(len(raw), 300)])))
	}
	metrics.ProviderRequests.WithLabelValues("review", "ok").Inc()

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return domain.ReviewVerdict{}, fmt.Errorf("%w: review envelope: %v", domain.ErrMalformedVerdict, err)
	}
	if cr.Error != nil {
		return domain.ReviewVerdict{}, fmt.Errorf("%w: review error: %s", domain.ErrUpstream, cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return domain.ReviewVerdict{}, fmt.Errorf("%w: no choices in response", domain.ErrMalformedVerdict)
	}

	return ParseVerdict([]byte(cr.Choices[0].Message.Content))
}
