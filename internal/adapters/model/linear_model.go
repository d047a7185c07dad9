// Package model loads the phishing URL classifier.
package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrModelUnavailable is returned when no model file exists
var ErrModelUnavailable = errors.New("model unavailable")

// Definition is the on-disk model layout. JSON documents parse as YAML.
type Definition struct {
	Name      string    `yaml:"name"`
	Features  []string  `yaml:"features"`
	Weights   []float64 `yaml:"weights"`
	Intercept float64   `yaml:"intercept"`
	Threshold float64   `yaml:"threshold"`
}

// LinearModel is a logistic regression over the URL feature vector
type LinearModel struct {
	def    Definition
	logger *zap.Logger
}

// NewLinearModel validates def and builds the model
func NewLinearModel(def Definition, logger *zap.Logger) (*LinearModel, error) {
	if len(def.Features) == 0 {
		return nil, errors.New("model declares no features")
	}
	if len(def.Features) != len(def.Weights) {
		return nil, fmt.Errorf("model declares %d features but %d weights", len(def.Features), len(def.Weights))
	}

	probe := core.NewFeatureVector()
	for _, name := range def.Features {
		if _, ok := probe.Get(name); !ok {
			return nil, fmt.Errorf("model uses unknown feature %q", name)
		}
	}

	if def.Threshold <= 0 || def.Threshold >= 1 {
		def.Threshold = 0.5
	}
	if def.Name == "" {
		def.Name = "linear"
	}

	return &LinearModel{def: def, logger: logger}, nil
}

// LoadLinearModel reads a model definition from path
func LoadLinearModel(path string, logger *zap.Logger) (*LinearModel, error) {
	if path == "" {
		return nil, ErrModelUnavailable
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrModelUnavailable)
		}
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}

	m, err := NewLinearModel(def, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}

	logger.Info("Loaded URL classifier",
		zap.String("path", path),
		zap.String("name", m.def.Name),
		zap.Strings("features", m.def.Features))
	return m, nil
}

// Predict returns class 1 when the phishing probability reaches the threshold
func (m *LinearModel) Predict(ctx context.Context, vector core.FeatureVector) (*core.Prediction, error) {
	z := m.def.Intercept
	for i, name := range m.def.Features {
		value, _ := vector.Get(name)
		z += m.def.Weights[i] * value
	}

	probability := 1 / (1 + math.Exp(-z))
	class := 0
	if probability >= m.def.Threshold {
		class = 1
	}

	return &core.Prediction{
		Class:       class,
		Probability: probability,
		ModelUsed:   m.def.Name,
	}, nil
}
