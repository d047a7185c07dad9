package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap/zaptest"
)

const testModel = `
name: test-logreg
features: [has_suspicious_tld, has_brand_impersonation, has_https]
weights: [3.0, 3.0, -1.5]
intercept: -2.0
`

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLinearModel_Predict(t *testing.T) {
	m, err := LoadLinearModel(writeModel(t, testModel), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("LoadLinearModel failed: %v", err)
	}

	tests := []struct {
		name      string
		vector    core.FeatureVector
		wantClass int
	}{
		{"benign https", core.FeatureVector{IsValid: 1, DomainAge: 900, HasHTTPS: 1}, 0},
		{"suspicious tld", core.FeatureVector{IsValid: 1, DomainAge: -1, HasSuspiciousTLD: 1}, 1},
		{"brand on https", core.FeatureVector{IsValid: 1, HasBrandImpersonation: 1, HasHTTPS: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction, err := m.Predict(context.Background(), tt.vector)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if prediction.Class != tt.wantClass {
				t.Errorf("class = %d (p=%.3f), want %d", prediction.Class, prediction.Probability, tt.wantClass)
			}
			if prediction.ModelUsed != "test-logreg" {
				t.Errorf("ModelUsed = %q", prediction.ModelUsed)
			}
		})
	}
}

func TestLoadLinearModel_JSON(t *testing.T) {
	path := writeModel(t, `{"features": ["is_valid"], "weights": [1.5], "intercept": 0, "threshold": 0.9}`)
	m, err := LoadLinearModel(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("LoadLinearModel failed: %v", err)
	}

	prediction, _ := m.Predict(context.Background(), core.FeatureVector{IsValid: 1})
	if prediction.Class != 0 || prediction.ModelUsed != "linear" {
		t.Errorf("prediction = %+v, want class 0 below the 0.9 threshold", prediction)
	}
}

func TestLoadLinearModel_Errors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if _, err := LoadLinearModel(filepath.Join(t.TempDir(), "missing.yaml"), logger); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("missing file error = %v, want ErrModelUnavailable", err)
	}
	if _, err := LoadLinearModel("", logger); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("empty path error = %v, want ErrModelUnavailable", err)
	}

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown feature", "features: [num_dots]\nweights: [1]\n", "unknown feature"},
		{"weight mismatch", "features: [is_valid, has_https]\nweights: [1]\n", "2 features but 1 weights"},
		{"no features", "intercept: 1\n", "no features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadLinearModel(writeModel(t, tt.content), logger)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
