// Package image implements image generation, editing against base images,
// and vision analysis, persisting results to object storage.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/openai/openai-go"

	"arcai/internal/domain"
	"arcai/internal/domain/models"
	"arcai/internal/domain/repositories"
	"arcai/internal/service/llm"
	"arcai/internal/service/stream"
	"arcai/internal/storage"
)

const (
	// MaxEditBaseImages caps how many base images one edit may reference.
	MaxEditBaseImages = 14

	// MaxAnalyzeImages caps how many images one analysis call may carry.
	MaxAnalyzeImages = 4

	defaultImageModel   = openai.ImageModelGPTImage1
	defaultAnalyzeModel = "anthropic/claude-sonnet-4-20250514"

	generateTimeout = 2 * time.Minute

	// persistTimeout bounds terminal database writes, which run on a fresh
	// context because the generation context may already have timed out.
	persistTimeout = 10 * time.Second
)

// Deps bundles the image service's collaborators.
type Deps struct {
	Client       openai.Client
	Messages     repositories.MessageRepository
	Uploader     storage.Uploader
	Providers    *llm.Registry
	DefaultModel string
	AnalyzeModel string
	Logger       *slog.Logger
}

// Service generates, edits and analyzes images.
type Service struct {
	client       openai.Client
	messages     repositories.MessageRepository
	uploader     storage.Uploader
	providers    *llm.Registry
	defaultModel openai.ImageModel
	analyzeModel string
	logger       *slog.Logger
	httpClient   *http.Client
}

// NewService creates the image service.
func NewService(deps Deps) *Service {
	defaultModel := defaultImageModel
	if deps.DefaultModel != "" {
		defaultModel = openai.ImageModel(deps.DefaultModel)
	}
	analyzeModel := deps.AnalyzeModel
	if analyzeModel == "" {
		analyzeModel = defaultAnalyzeModel
	}
	return &Service{
		client:       deps.Client,
		messages:     deps.Messages,
		uploader:     deps.Uploader,
		providers:    deps.Providers,
		defaultModel: defaultModel,
		analyzeModel: analyzeModel,
		logger:       deps.Logger,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// GenerateRequest is the POST body for image generation.
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	PreferredModel string `json:"preferredModel,omitempty"`
}

// Validate implements request validation.
func (r GenerateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, 4000)),
	)
}

// Result is the outcome of a generation or edit call.
type Result struct {
	ImageURL string `json:"imageUrl"`
}

// Generate produces one image for the prompt and returns its stored URL.
func (s *Service) Generate(ctx context.Context, userID string, req GenerateRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	model := s.defaultModel
	if req.PreferredModel != "" {
		model = openai.ImageModel(req.PreferredModel)
	}

	resp, err := s.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  model,
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image generation returned no images")
	}

	url := s.persistImage(ctx, userID, resp.Data[0].B64JSON, resp.Data[0].URL)
	if url == "" {
		return nil, fmt.Errorf("image generation returned no usable image data")
	}
	return &Result{ImageURL: url}, nil
}

// GenerateToMessage runs a generation for an image-mode chat message and
// finalizes the placeholder itself, succeed or fail. Intended to run on its
// own goroutine with a background-derived context.
func (s *Service) GenerateToMessage(ctx context.Context, userID, messageID, prompt string) {
	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	result, err := s.Generate(genCtx, userID, GenerateRequest{Prompt: prompt})

	persistCtx, persistCancel := context.WithTimeout(context.Background(), persistTimeout)
	defer persistCancel()

	if err != nil {
		s.logger.Error("image generation for message failed",
			"message_id", messageID, "error", err)
		if failErr := s.messages.Fail(persistCtx, messageID, models.MessageStatusError, err.Error(), stream.FallbackErrorMessage); failErr != nil {
			s.logger.Error("failed to persist image failure", "message_id", messageID, "error", failErr)
		}
		return
	}

	msg := &models.Message{
		ID:        messageID,
		Type:      models.MessageTypeImage,
		Content:   prompt,
		Status:    models.MessageStatusComplete,
		ImageURLs: []string{result.ImageURL},
	}
	if err := s.messages.Complete(persistCtx, msg); err != nil {
		s.logger.Error("failed to persist generated image", "message_id", messageID, "error", err)
	}
}

// EditRequest is the POST body for an image edit.
type EditRequest struct {
	Prompt        string   `json:"prompt"`
	BaseImageURLs []string `json:"baseImageUrls"`
	ImageModel    string   `json:"imageModel,omitempty"`
}

// Validate implements request validation.
func (r EditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, 4000)),
		validation.Field(&r.BaseImageURLs, validation.Required, validation.Length(1, MaxEditBaseImages)),
	)
}

// Edit produces a new image from the prompt and the referenced base images.
func (s *Service) Edit(ctx context.Context, userID string, req EditRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	files := make([]io.Reader, 0, len(req.BaseImageURLs))
	for i, url := range req.BaseImageURLs {
		data, contentType, err := s.downloadImage(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch base image %d: %w", i+1, err)
		}
		files = append(files, openai.File(bytes.NewReader(data), fmt.Sprintf("base-%d.png", i+1), contentType))
	}

	model := s.defaultModel
	if req.ImageModel != "" {
		model = openai.ImageModel(req.ImageModel)
	}

	resp, err := s.client.Images.Edit(ctx, openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFileArray: files},
		Prompt: req.Prompt,
		Model:  model,
	})
	if err != nil {
		return nil, fmt.Errorf("image edit failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image edit returned no images")
	}

	url := s.persistImage(ctx, userID, resp.Data[0].B64JSON, resp.Data[0].URL)
	if url == "" {
		return nil, fmt.Errorf("image edit returned no usable image data")
	}
	return &Result{ImageURL: url}, nil
}

// AnalyzeRequest is the POST body for image analysis: a question plus up to
// four base64-encoded images.
type AnalyzeRequest struct {
	Messages []llm.ChatMessage `json:"messages"`
	Images   []string          `json:"images"`
}

// Validate implements request validation.
func (r AnalyzeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Messages, validation.Required),
		validation.Field(&r.Images, validation.Required, validation.Length(1, MaxAnalyzeImages)),
	)
}

// AnalyzeResult is the analysis answer.
type AnalyzeResult struct {
	Content string `json:"content"`
}

// Analyze answers a question about the attached images through a
// vision-capable model.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}

	provider, model, err := s.providers.ForModel(s.analyzeModel)
	if err != nil {
		return nil, err
	}

	attachments := make([]llm.ImageAttachment, 0, len(req.Images))
	for _, img := range req.Images {
		mediaType, data := splitDataURL(img)
		attachments = append(attachments, llm.ImageAttachment{
			MediaType:  mediaType,
			Base64Data: data,
		})
	}

	// Attach the images to the final user turn.
	messages := make([]llm.ChatMessage, len(req.Messages))
	copy(messages, req.Messages)
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			messages[i].Images = attachments
			break
		}
	}

	resp, err := provider.Generate(ctx, &llm.Request{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}

	return &AnalyzeResult{Content: resp.Content}, nil
}

// persistImage uploads the generated image to storage and returns its public
// URL. An upload failure is logged and falls back to the upstream URL so the
// operation never fails on storage alone.
func (s *Service) persistImage(ctx context.Context, userID, b64, upstreamURL string) string {
	data := []byte(nil)
	if b64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			s.logger.Warn("failed to decode generated image", "error", err)
		} else {
			data = decoded
		}
	}
	if data == nil && upstreamURL != "" {
		downloaded, _, err := s.downloadImage(ctx, upstreamURL)
		if err != nil {
			s.logger.Warn("failed to download generated image", "error", err)
			return upstreamURL
		}
		data = downloaded
	}
	if data == nil {
		return upstreamURL
	}

	url, err := s.uploader.UploadImage(ctx, userID, data, "image/png")
	if err != nil {
		s.logger.Warn("image upload failed, falling back to upstream url", "error", err)
		return upstreamURL
	}
	return url
}

func (s *Service) downloadImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

// splitDataURL separates an optional data-URL prefix from the base64 body.
func splitDataURL(img string) (mediaType, data string) {
	mediaType, data = "image/png", img
	if len(img) > 5 && img[:5] == "data:" {
		for i := 5; i < len(img); i++ {
			if img[i] == ';' || img[i] == ',' {
				mediaType = img[5:i]
				break
			}
		}
		for i := range img {
			if img[i] == ',' {
				data = img[i+1:]
				break
			}
		}
	}
	return mediaType, data
}
