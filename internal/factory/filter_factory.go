package factory

import (
	"fmt"

	"github.com/mikey/phishguard/internal/adapters/filter"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ThreatService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.ThreatService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	serverCfg := f.cfg.GetServer()

	switch serverCfg.FilterType {
	case "postfix":
		return filter.NewPostfixFilter(f.service, f.logger, filter.PostfixConfig{
			ListenAddr:     serverCfg.ListenAddress,
			BlockSpam:      serverCfg.BlockSpam,
			LabelHeader:    serverCfg.LabelHeader,
			ScoreHeader:    serverCfg.ScoreHeader,
			ReasonHeader:   serverCfg.ReasonHeader,
			PostfixAddr:    serverCfg.PostfixAddress,
			PostfixPort:    serverCfg.PostfixPort,
			PostfixEnabled: serverCfg.PostfixEnabled,
			SubjectPrefix:  serverCfg.SubjectPrefix,
			ModifySubject:  serverCfg.ModifySubject,
			VerifyDKIM:     serverCfg.VerifyDKIM,
			SaveHistory:    serverCfg.SaveHistory,
			Timeout:        serverCfg.Timeout,
		}), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.save"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", serverCfg.FilterType)
	}
}
