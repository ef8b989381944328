package ml

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/metrics"
	"github.com/franckalain/wastedetect/internal/models"
	"google.golang.org/api/option"
)

const defaultVertexModel = "gemini-1.5-flash-002"

// VertexConfig holds configuration for the Vertex AI model
type VertexConfig struct {
	BaseConfig
	ProjectID       string `json:"project_id"`
	Location        string `json:"location"`
	CredentialsFile string `json:"credentials_file"`
	Model           string `json:"model"`
}

// Load loads the Vertex configuration
func (c *VertexConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "vertex", c); err != nil {
		return err
	}

	// Fall back to environment variables if not set
	if c.ProjectID == "" {
		c.ProjectID = firstEnv("GOOGLE_PROJECT_ID")
	}
	if c.Location == "" {
		c.Location = firstEnv("GOOGLE_LOCATION")
	}
	if c.Location == "" {
		c.Location = "us-central1"
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = firstEnv("GOOGLE_CREDENTIALS_FILE")
	}
	if c.Model == "" {
		c.Model = defaultVertexModel
	}

	return nil
}

// VertexModel implements the Model interface for Google's Vertex AI
type VertexModel struct {
	config   VertexConfig
	validate bool
	client   *genai.Client
	model    *genai.GenerativeModel
}

// VertexModelFactory implements ModelFactory for Vertex models
type VertexModelFactory struct {
	config   VertexConfig
	validate bool
}

// NewVertexModelFactory creates a new Vertex model factory
func NewVertexModelFactory(config VertexConfig, validate bool) *VertexModelFactory {
	return &VertexModelFactory{config: config, validate: validate}
}

// CreateModel creates a new Vertex model instance
func (f *VertexModelFactory) CreateModel() (Model, error) {
	return &VertexModel{
		config:   f.config,
		validate: f.validate,
	}, nil
}

func (m *VertexModel) Name() string { return "vertex" }

// Load initializes the Vertex client
func (m *VertexModel) Load(ctx context.Context) error {
	if m.config.ProjectID == "" {
		return apperr.Errorf(apperr.ConfigurationMissing, "GOOGLE_PROJECT_ID is empty")
	}

	opts := []option.ClientOption{}

	if m.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(m.config.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, m.config.ProjectID, m.config.Location, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	m.client = client
	m.model = client.GenerativeModel(m.config.Model)
	m.model.ResponseMIMEType = jsonMIMEType
	log.Infof("Vertex model %s ready in %s/%s", m.config.Model, m.config.ProjectID, m.config.Location)
	return nil
}

// Classify processes an image using Vertex AI
func (m *VertexModel) Classify(ctx context.Context, image []byte, mimeType string) (*models.ClassificationResult, error) {
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

	text, err := vertexText(resp)
	if err != nil {
		return nil, err
	}
	return ParseClassification(text, m.validate)
}

// vertexText joins the text parts of the first candidate
func vertexText(resp *genai.GenerateContentResponse) (string, error) {
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

func (m *VertexModel) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}
