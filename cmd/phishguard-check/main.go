package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/phishguard/internal/adapters/filter"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/di"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/features"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

func main() {
	flags, err := di.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	flags *di.CLIFlags,
	cfg *config.Config,
	logger *zap.Logger,
	cliFilter *filter.CliFilter,
	extractor *features.Extractor,
	spamClassifier core.SpamClassifier,
	history factory.HistoryStore,
) error {
	defer logger.Sync()
	defer history.Stop()
	defer func() {
		if closer, ok := spamClassifier.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close spam classifier", zap.Error(err))
			}
		}
	}()

	ctx := context.Background()

	switch flags.Command {
	case di.CommandURL:
		if len(flags.Args) == 0 {
			return fmt.Errorf("url: at least one URL is required")
		}
		for _, rawURL := range flags.Args {
			if _, err := cliFilter.CheckURL(ctx, rawURL); err != nil {
				return err
			}
		}
		return nil

	case di.CommandEmail:
		email, err := readEmail(flags, logger)
		if err != nil {
			return err
		}
		_, err = cliFilter.ProcessEmail(ctx, email)
		return err

	case di.CommandSMS:
		message, err := readMessage(flags, logger)
		if err != nil {
			return err
		}
		_, err = cliFilter.CheckText(ctx, message)
		return err

	case di.CommandFeatures:
		return exportFeatures(ctx, flags, cfg, extractor, logger)
	}

	return di.ErrUsage
}

// readEmail builds the email from the flags, the --file message or stdin
func readEmail(flags *di.CLIFlags, logger *zap.Logger) (*core.Email, error) {
	if flags.File == "" && flags.HasInlineEmail() {
		return flags.InlineEmail(), nil
	}

	var reader io.Reader
	if flags.File != "" {
		file, err := os.Open(flags.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading email from file", zap.String("file", flags.File))
	} else {
		reader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}

	email, err := filter.ParseMessage(raw)
	if err != nil {
		return nil, err
	}

	// explicit flags override what the message says
	if flags.SPF != "" {
		email.SPFStatus = flags.SPF
	}
	if flags.DKIM != "" {
		email.DKIMStatus = flags.DKIM
	}
	if flags.DMARC != "" {
		email.DMARCStatus = flags.DMARC
	}
	if flags.OriginIP != "" {
		email.OriginIP = flags.OriginIP
	}
	return email, nil
}

// readMessage returns the short message from the arguments, the --file text or stdin
func readMessage(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if flags.File == "" && len(flags.Args) > 0 {
		return strings.Join(flags.Args, " "), nil
	}

	var reader io.Reader = os.Stdin
	if flags.File != "" {
		file, err := os.Open(flags.File)
		if err != nil {
			return "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading message from file", zap.String("file", flags.File))
	} else {
		logger.Info("Reading message from stdin")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}
	return string(data), nil
}

// exportFeatures writes the feature vectors of a URL list as CSV
func exportFeatures(ctx context.Context, flags *di.CLIFlags, cfg *config.Config, extractor *features.Extractor, logger *zap.Logger) error {
	urls := flags.Args
	if flags.Input != "" {
		var err error
		urls, err = readLines(flags.Input)
		if err != nil {
			return err
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("features: no URLs given")
	}

	out := io.Writer(os.Stdout)
	if flags.Output != "" {
		file, err := os.Create(flags.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	spinner, _ := pterm.DefaultSpinner.WithWriter(os.Stderr).Start(fmt.Sprintf("Extracting features for %d URLs", len(urls)))

	vectors, err := extractor.BatchExtract(ctx, urls, cfg.GetFeatures().BatchWorkers)
	if err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		return err
	}
	if spinner != nil {
		spinner.Success(fmt.Sprintf("Extracted %d feature vectors", len(vectors)))
	}

	if err := features.WriteCSV(out, urls, vectors); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	logger.Debug("Feature export complete",
		zap.Int("urls", len(urls)),
		zap.String("output", flags.Output))
	return nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return lines, nil
}
