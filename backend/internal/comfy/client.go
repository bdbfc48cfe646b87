package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"triptych/backend/internal/sampler"
	"triptych/backend/pkg/logger"
)

// Client talks to a ComfyUI server over its HTTP API and implements
// sampler.Backend. Construction never fails; reachability is the
// adapter's capability probe's problem.
type Client struct {
	baseURL     string
	clientID    string
	httpClient  *http.Client
	pollTimeout time.Duration
	logger      *zap.Logger
}

// NewClient creates a ComfyUI client for the given base URL
func NewClient(baseURL string, timeout, pollTimeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: uuid.NewString(),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		pollTimeout: pollTimeout,
		logger:      logger.Named("comfy"),
	}
}

// Name identifies this backend in logs and diagnostics
func (c *Client) Name() string {
	return "comfyui"
}

// Ping checks server reachability via the system stats endpoint
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/system_stats", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("comfyui unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("comfyui returned status %d", resp.StatusCode)
	}
	return nil
}

// AvailableSamplers introspects the KSampler node's sampler_name options
func (c *Client) AvailableSamplers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/object_info/KSampler", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("object_info request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object_info returned status %d", resp.StatusCode)
	}

	var info map[string]struct {
		Input struct {
			Required map[string][]interface{} `json:"required"`
		} `json:"input"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse object_info: %w", err)
	}

	node, ok := info["KSampler"]
	if !ok {
		return nil, fmt.Errorf("KSampler node not present in object_info")
	}
	raw, ok := node.Input.Required["sampler_name"]
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("sampler_name options missing from KSampler")
	}
	options, ok := raw[0].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected sampler_name shape")
	}

	samplers := make([]string, 0, len(options))
	for _, o := range options {
		if s, ok := o.(string); ok {
			samplers = append(samplers, s)
		}
	}
	return samplers, nil
}

// Generate builds a KSampler graph from the request, submits it, polls
// for completion, and projects the output image back into a latent
func (c *Client) Generate(ctx context.Context, req sampler.GenerateRequest) (sampler.Latent, error) {
	graph := BuildSamplerGraph(req)

	promptID, err := c.submitPrompt(ctx, graph)
	if err != nil {
		return sampler.Latent{}, err
	}

	c.logger.Debug("Prompt submitted",
		zap.String("prompt_id", promptID),
		zap.String("sampler", req.Params.Sampler),
		zap.Int("steps", req.Params.Steps),
	)

	output, err := c.pollHistory(ctx, promptID)
	if err != nil {
		return sampler.Latent{}, err
	}

	img, err := c.fetchImage(ctx, output)
	if err != nil {
		return sampler.Latent{}, err
	}

	return imageToLatent(img, req.Latent.Width, req.Latent.Height)
}

// submitPrompt posts a workflow graph to /prompt
func (c *Client) submitPrompt(ctx context.Context, graph map[string]interface{}) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"prompt":    graph,
		"client_id": c.clientID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prompt submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("prompt rejected with status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var result struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse prompt response: %w", err)
	}
	if result.PromptID == "" {
		return "", fmt.Errorf("no prompt_id in response")
	}
	return result.PromptID, nil
}

// outputImage locates a generated image in the history payload
type outputImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// pollHistory waits for the prompt to finish and returns the first
// output image reference
func (c *Client) pollHistory(ctx context.Context, promptID string) (outputImage, error) {
	deadline := time.Now().Add(c.pollTimeout)
	interval := 2 * time.Second

	for {
		if time.Now().After(deadline) {
			return outputImage{}, fmt.Errorf("prompt %s timed out after %s", promptID, c.pollTimeout)
		}

		select {
		case <-ctx.Done():
			return outputImage{}, ctx.Err()
		case <-time.After(interval):
		}

		img, done, err := c.checkHistory(ctx, promptID)
		if err != nil {
			return outputImage{}, err
		}
		if done {
			return img, nil
		}
	}
}

func (c *Client) checkHistory(ctx context.Context, promptID string) (outputImage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+promptID, nil)
	if err != nil {
		return outputImage{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return outputImage{}, false, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return outputImage{}, false, fmt.Errorf("history returned status %d", resp.StatusCode)
	}

	var history map[string]struct {
		Status struct {
			Completed bool   `json:"completed"`
			StatusStr string `json:"status_str"`
		} `json:"status"`
		Outputs map[string]struct {
			Images []outputImage `json:"images"`
		} `json:"outputs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return outputImage{}, false, fmt.Errorf("failed to parse history: %w", err)
	}

	entry, ok := history[promptID]
	if !ok {
		// Not finished yet
		return outputImage{}, false, nil
	}
	if entry.Status.StatusStr == "error" {
		return outputImage{}, false, fmt.Errorf("prompt %s failed on the server", promptID)
	}
	for _, out := range entry.Outputs {
		if len(out.Images) > 0 {
			return out.Images[0], true, nil
		}
	}
	if entry.Status.Completed {
		return outputImage{}, false, fmt.Errorf("prompt %s completed without images", promptID)
	}
	return outputImage{}, false, nil
}

// fetchImage downloads a generated image via /view
func (c *Client) fetchImage(ctx context.Context, img outputImage) ([]byte, error) {
	q := url.Values{}
	q.Set("filename", img.Filename)
	q.Set("subfolder", img.Subfolder)
	q.Set("type", img.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/view?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("view request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("view returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
