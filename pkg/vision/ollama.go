package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/robodyne/go-follow/internal/httpc"
	"github.com/robodyne/go-follow/pkg/rosmsg"
)

// detectPrompt asks for a strict yes/no so the answer is machine-checkable.
const detectPrompt = "Look at this image carefully. Is there a person (a man, " +
	"woman, or person) clearly visible in this image? Answer only 'yes' or " +
	"'no'. Be very strict - only say 'yes' if you can clearly see a complete person."

const describePrompt = "Describe what you see in this image in detail. " +
	"What objects, people, or things are visible?"

// Ollama classifies frames with a local Ollama vision-language model.
type Ollama struct {
	cfg    Config
	client *http.Client
}

// NewOllama creates an Ollama-backed detector.
func NewOllama(cfg Config) *Ollama {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Ollama{
		cfg:    cfg,
		client: httpc.NewClient(cfg.Timeout),
	}
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Detect downsizes the frame, sends it to the model, and interprets the
// answer. Any transport or model failure surfaces as an error; the caller
// maps that to "stop".
func (o *Ollama) Detect(ctx context.Context, frame *rosmsg.Frame) (Verdict, error) {
	jpeg, err := frameToJPEG(frame, o.cfg.InputWidth, o.cfg.InputHeight, o.cfg.JPEGQuality)
	if err != nil {
		return Verdict{}, err
	}

	answer, err := o.generate(ctx, detectPrompt, jpeg)
	if err != nil {
		return Verdict{}, err
	}
	return interpretAnswer(answer), nil
}

// interpretAnswer maps the model's free-text reply to a verdict. The
// prompt demands yes/no, but small models ramble; any "yes" or "person"
// in the reply counts.
func interpretAnswer(answer string) Verdict {
	lower := strings.ToLower(strings.TrimSpace(answer))
	return Verdict{
		Person: strings.Contains(lower, "yes") || strings.Contains(lower, "person"),
		Answer: lower,
	}
}

// Describe asks the model what the frame shows. Purely diagnostic.
func (o *Ollama) Describe(ctx context.Context, frame *rosmsg.Frame) (string, error) {
	jpeg, err := frameToJPEG(frame, o.cfg.InputWidth, o.cfg.InputHeight, o.cfg.JPEGQuality)
	if err != nil {
		return "", err
	}
	return o.generate(ctx, describePrompt, jpeg)
}

func (o *Ollama) generate(ctx context.Context, prompt string, jpeg []byte) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  o.cfg.Model,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(jpeg)},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("vision: marshal request: %w", err)
	}

	url := strings.TrimSuffix(o.cfg.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("vision: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision: ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("vision: ollama status %d: %s", resp.StatusCode, msg)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("vision: decode response: %w", err)
	}
	return out.Response, nil
}

// Close releases resources. The HTTP client has none worth reclaiming.
func (o *Ollama) Close() error { return nil }

var _ Detector = (*Ollama)(nil)
