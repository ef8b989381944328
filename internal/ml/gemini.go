package ml

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/metrics"
	"github.com/franckalain/wastedetect/internal/models"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiConfig holds configuration for the Gemini API model
type GeminiConfig struct {
	BaseConfig
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// Load loads the Gemini configuration
func (c *GeminiConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "gemini", c); err != nil {
		return err
	}

	// Fall back to environment variables if not set
	if c.APIKey == "" {
		c.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if c.Model == "" {
		c.Model = defaultGeminiModel
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	return nil
}

// GeminiModel implements the Model interface for the Gemini API
type GeminiModel struct {
	config   GeminiConfig
	validate bool
	client   *genai.Client
	model    *genai.GenerativeModel
}

// GeminiModelFactory implements ModelFactory for Gemini models
type GeminiModelFactory struct {
	config   GeminiConfig
	validate bool
}

// NewGeminiModelFactory creates a new Gemini model factory
func NewGeminiModelFactory(config GeminiConfig, validate bool) *GeminiModelFactory {
	return &GeminiModelFactory{config: config, validate: validate}
}

// CreateModel creates a new Gemini model instance
func (f *GeminiModelFactory) CreateModel() (Model, error) {
	return &GeminiModel{
		config:   f.config,
		validate: f.validate,
	}, nil
}

func (m *GeminiModel) Name() string { return "gemini" }

// Load creates the long-lived API client
func (m *GeminiModel) Load(ctx context.Context) error {
	if m.config.APIKey == "" {
		return apperr.Errorf(apperr.ConfigurationMissing, "GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.config.APIKey))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	m.client = client
	m.model = client.GenerativeModel(m.config.Model)
	m.model.ResponseMIMEType = jsonMIMEType
	log.Infof("Gemini model %s ready", m.config.Model)
	return nil
}

// Classify sends the fixed prompt and the image to Gemini
func (m *GeminiModel) Classify(ctx context.Context, image []byte, mimeType string) (*models.ClassificationResult, error) {
	if m.model == nil {
		return nil, apperr.Errorf(apperr.ConfigurationMissing, "model not loaded")
	}

	start := time.Now()
	resp, err := m.model.GenerateContent(ctx,
		genai.Text(Prompt),
		genai.Blob{MIMEType: PickMIME(mimeType, image), Data: image},
	)
	metrics.ObserveUpstream(m.Name(), start, err)
	if err != nil {
		return nil, apperr.New(apperr.UpstreamUnavailable, fmt.Errorf("failed to call ai: %w", err))
	}

	text, err := geminiText(resp)
	if err != nil {
		return nil, err
	}
	return ParseClassification(text, m.validate)
}

func (m *GeminiModel) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperr.Errorf(apperr.UpstreamMalformedResponse, "no response generated")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", apperr.Errorf(apperr.UpstreamMalformedResponse, "no content in response")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}
