package ml

import (
	"context"
	"fmt"

	"github.com/franckalain/wastedetect/internal/models"
	logging "github.com/ipfs/go-log"
)

var log = logging.Logger("wastedetect")

// Model represents a classifier that turns an image into a waste verdict
type Model interface {
	// Name identifies the provider in logs and metrics
	Name() string
	// Load initializes the model with its configuration
	Load(ctx context.Context) error
	// Classify sends one image to the model and parses its reply
	Classify(ctx context.Context, image []byte, mimeType string) (*models.ClassificationResult, error)
	// Close releases the underlying client
	Close() error
}

// ModelFactory creates a new model instance based on configuration
type ModelFactory interface {
	// CreateModel creates a new model instance
	CreateModel() (Model, error)
}

// Options selects and tunes a provider
type Options struct {
	Type             string // "gemini", "vertex" or "static"
	ConfigPath       string // optional provider config file
	Model            string // overrides the provider's default model name
	ValidateResponse bool
}

// NewModel creates a new model instance based on the model type
func NewModel(opts Options) (Model, error) {
	var factory ModelFactory
	base := BaseConfig{ConfigPath: opts.ConfigPath}

	switch opts.Type {
	case "gemini":
		config := GeminiConfig{BaseConfig: base}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load Gemini config: %w", err)
		}
		if opts.Model != "" {
			config.Model = opts.Model
		}
		factory = NewGeminiModelFactory(config, opts.ValidateResponse)
	case "vertex":
		config := VertexConfig{BaseConfig: base}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load Vertex config: %w", err)
		}
		if opts.Model != "" {
			config.Model = opts.Model
		}
		factory = NewVertexModelFactory(config, opts.ValidateResponse)
	case "static":
		config := StaticConfig{BaseConfig: base}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load static config: %w", err)
		}
		factory = NewStaticModelFactory(config)
	default:
		return nil, fmt.Errorf("unsupported model type: %s", opts.Type)
	}
	return factory.CreateModel()
}
