package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
)

// Generator defines the interface for cover image generation.
type Generator interface {
	GenerateCover(ctx context.Context, prompt, outPath string) error
}

// SusanooConfig holds configuration for the Susanoo image API.
type SusanooConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	AspectRatio string
	Timeout     time.Duration
	WebPQuality int
}

// Susanoo implements Generator against the Susanoo image generation API.
type Susanoo struct {
	cfg  SusanooConfig
	http *http.Client
}

// NewSusanoo creates a Susanoo client from config. Returns nil if essential config is missing.
func NewSusanoo(cfg SusanooConfig) (*Susanoo, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.AspectRatio = strings.TrimSpace(cfg.AspectRatio)
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.WebPQuality <= 0 || cfg.WebPQuality > 100 {
		cfg.WebPQuality = 85
	}
	return &Susanoo{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

type coverRequest struct {
	Model    string         `json:"model"`
	Prompt   string         `json:"prompt"`
	N        int            `json:"n,omitempty"`
	Provider string         `json:"provider,omitempty"`
	Options  map[string]any `json:"gemini_options,omitempty"`
}

type coverResponse struct {
	Data struct {
		Error   string `json:"error"`
		Results []struct {
			B64JSON string `json:"b64_json"`
		} `json:"results"`
	} `json:"data"`
}

// GenerateCover generates an image from prompt and writes a WebP file to outPath.
func (s *Susanoo) GenerateCover(ctx context.Context, prompt, outPath string) error {
	if s == nil {
		return errors.New("nil susanoo client")
	}
	if strings.TrimSpace(prompt) == "" {
		return errors.New("prompt is empty")
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	slog.Info("susanoo: generating cover image",
		"model", s.cfg.Model,
		"aspect_ratio", s.cfg.AspectRatio,
		"out_path", outPath,
	)
	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return err
	}
	if err := s.writeWebP(raw, outPath); err != nil {
		return err
	}
	slog.Info("susanoo: cover image saved", "path", outPath, "duration", time.Since(start))
	return nil
}

// generate calls the API and returns the raw image bytes.
func (s *Susanoo) generate(ctx context.Context, prompt string) ([]byte, error) {
	req := coverRequest{
		Model:    s.cfg.Model,
		Prompt:   prompt,
		N:        1,
		Provider: "gemini",
	}
	if s.cfg.AspectRatio != "" {
		req.Options = map[string]any{"aspect_ratio": s.cfg.AspectRatio}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/images/generations?async=0", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-SUSANOO-KEY", s.cfg.APIKey)

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("susanoo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("susanoo status=%d body=%s", resp.StatusCode, string(b))
	}
	var parsed coverResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(parsed.Data.Error) != "" {
		return nil, fmt.Errorf("susanoo error: %s", parsed.Data.Error)
	}
	if len(parsed.Data.Results) == 0 || strings.TrimSpace(parsed.Data.Results[0].B64JSON) == "" {
		return nil, errors.New("susanoo returned empty image data")
	}
	raw, err := base64.StdEncoding.DecodeString(parsed.Data.Results[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return raw, nil
}

// writeWebP re-encodes the raw image (png or jpeg) as WebP at outPath.
func (s *Susanoo) writeWebP(raw []byte, outPath string) error {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	bounds := img.Bounds()
	slog.Info("susanoo: image decoded",
		"bytes", len(raw),
		"width", bounds.Dx(),
		"height", bounds.Dy(),
	)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create cover dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create cover file: %w", err)
	}
	defer f.Close()

	if err := webp.Encode(f, img, &webp.Options{Quality: float32(s.cfg.WebPQuality)}); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}
