package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/inkwell/studio/common/config"
)

// GenerationRequest is the payload sent to the image-generation service.
// Engine-specific params ride along in Params untouched.
type GenerationRequest struct {
	Prompt            string                 `json:"prompt"`
	ReferenceImageRef string                 `json:"reference_image_ref,omitempty"`
	Params            map[string]interface{} `json:"params,omitempty"`
}

// GenerationResult is what comes back: either an image reference or an error
type GenerationResult struct {
	ImageRef string `json:"image_ref"`
}

// Generator is the black-box contract for the external generation service.
// Latency and failure modes are opaque; either we get an image_ref to
// persist, or we persist nothing.
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}

// HTTPGenerator calls the generation service over HTTP
type HTTPGenerator struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  Logger
}

// NewHTTPGenerator creates a generation client
func NewHTTPGenerator(cfg config.GenerationConfig, logger Logger) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Generate renders a design candidate and returns its blob reference
func (g *HTTPGenerator) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("generation request requires a prompt")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	g.logger.Info("calling generation service", "prompt_len", len(req.Prompt), "has_reference", req.ReferenceImageRef != "")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("generation service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result GenerationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	if result.ImageRef == "" {
		return nil, fmt.Errorf("generation service returned no image_ref")
	}

	g.logger.Info("generation complete", "image_ref", result.ImageRef)
	return &result, nil
}

var _ Generator = (*HTTPGenerator)(nil)
