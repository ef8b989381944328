package ml

import (
	"context"

	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/models"
)

// StaticConfig holds the fixed reply of the static model
type StaticConfig struct {
	BaseConfig
	Result *models.ClassificationResult `json:"result"`
}

// Load loads the static configuration
func (c *StaticConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "static", c); err != nil {
		return err
	}
	if c.Result == nil {
		c.Result = models.NoWaste()
	}
	return nil
}

// StaticModel answers every image with the configured result. It needs no
// credentials and is meant for local runs and demos.
type StaticModel struct {
	config StaticConfig
}

// StaticModelFactory implements ModelFactory for static models
type StaticModelFactory struct {
	config StaticConfig
}

// NewStaticModelFactory creates a new static model factory
func NewStaticModelFactory(config StaticConfig) *StaticModelFactory {
	return &StaticModelFactory{config: config}
}

// CreateModel creates a new static model instance
func (f *StaticModelFactory) CreateModel() (Model, error) {
	return &StaticModel{
		config: f.config,
	}, nil
}

func (m *StaticModel) Name() string { return "static" }

func (m *StaticModel) Load(ctx context.Context) error {
	if m.config.Result == nil {
		m.config.Result = models.NoWaste()
	}
	log.Warnf("Using static classifier, every image gets waste_type %q", m.config.Result.WasteType)
	return nil
}

func (m *StaticModel) Classify(ctx context.Context, image []byte, mimeType string) (*models.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.New(apperr.UpstreamUnavailable, err)
	}
	if m.config.Result == nil {
		return nil, apperr.Errorf(apperr.ConfigurationMissing, "model not loaded")
	}
	res := *m.config.Result
	res.DisposalMethods = append([]string{}, m.config.Result.DisposalMethods...)
	res.MistakesToAvoid = append([]string{}, m.config.Result.MistakesToAvoid...)
	return &res, nil
}

func (m *StaticModel) Close() error { return nil }
