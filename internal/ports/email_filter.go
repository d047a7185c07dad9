package ports

import (
	"context"

	"github.com/mikey/phishguard/internal/core"
)

// ThreatClassifier is the classification surface the filters drive
type ThreatClassifier interface {
	ClassifyURL(ctx context.Context, rawURL string, opts core.ClassifyOptions) (*core.URLVerdict, error)
	ClassifyEmail(ctx context.Context, email *core.Email, opts core.ClassifyOptions) (*core.EmailVerdict, error)
	ClassifyText(ctx context.Context, message string, opts core.ClassifyOptions) (*core.TextVerdict, error)
}

// EmailFilter defines the interface for email filtering
type EmailFilter interface {
	// ProcessEmail classifies an email and returns the verdict
	ProcessEmail(ctx context.Context, email *core.Email) (*core.EmailVerdict, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
