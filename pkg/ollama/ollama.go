// Package ollama is a client for an Ollama-compatible inference service:
// text generation for the assistant and embeddings for the FAQ index.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Astemirdum/library-assistant/pkg/circuit_breaker"
	"github.com/Astemirdum/library-assistant/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	DefaultURL        = "http://localhost:11434"
	DefaultModel      = "gemma3:4b"
	DefaultEmbedModel = "all-minilm"
)

type Config struct {
	URL        string        `envconfig:"LLM_URL" default:"http://localhost:11434"`
	Model      string        `envconfig:"LLM_MODEL" default:"gemma3:4b"`
	EmbedModel string        `envconfig:"EMBED_MODEL" default:"all-minilm"`
	Timeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"2m"`
}

type Client struct {
	baseURL    string
	model      string
	embedModel string
	client     *http.Client
	cb         circuit_breaker.CircuitBreaker
}

func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = DefaultEmbedModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		model:      cfg.Model,
		embedModel: cfg.EmbedModel,
		client:     &http.Client{Timeout: cfg.Timeout},
		cb:         circuit_breaker.New(20, 10*time.Second, 0.5, 2),
	}
}

func (c *Client) CB() circuit_breaker.CircuitBreaker {
	return c.cb
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// Generate runs a single non-streaming completion and returns the reply text.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	var reply string
	err := c.call(ctx, "generate", "/api/generate", generateRequest{
		Model:  c.model,
		System: system,
		Prompt: prompt,
	}, func(body []byte) error {
		res := gjson.GetBytes(body, "response")
		if !res.Exists() {
			return errors.New("ollama: response field missing")
		}
		reply = res.String()
		return nil
	})
	return reply, err
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := c.call(ctx, "embed", "/api/embeddings", embedRequest{
		Model:  c.embedModel,
		Prompt: text,
	}, func(body []byte) error {
		res := gjson.GetBytes(body, "embedding")
		if !res.IsArray() {
			return errors.New("ollama: embedding field missing")
		}
		arr := res.Array()
		vec = make([]float32, len(arr))
		for i, v := range arr {
			vec[i] = float32(v.Float())
		}
		return nil
	})
	return vec, err
}

func (c *Client) call(ctx context.Context, op, path string, payload any, decode func([]byte) error) error {
	start := time.Now()
	err := c.cb.Call(func() error {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return errors.Wrap(err, "new request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return errors.Wrap(err, "call ollama")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "read response")
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error").String())
		}
		return decode(body)
	})
	metrics.RecordLLMCall(op, time.Since(start), err)
	return err
}
