// Package cli provides the docqa command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set by SetVersion, normally from build flags.
var version = "dev"

// verbose enables pipeline logging on stderr.
var verbose bool

// Core holds the services that need the AI providers.
type Core struct {
	Sessions driving.SessionService
	Ingest   driving.IngestService
}

// Services configures the commands.
type Services struct {
	Settings driving.SettingsService
	History  driving.HistoryService

	// Core builds the provider-backed services on first use so commands
	// that never embed or generate start without them.
	Core func() (*Core, error)
}

var (
	settingsService driving.SettingsService
	historyService  driving.HistoryService
	coreFactory     func() (*Core, error)
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a document",
	Long: `docqa answers questions about a single document.

The document is split into overlapping chunks, each chunk is embedded, and
every question is answered by a language model from the chunks most similar
to it. Follow-up questions are rewritten into standalone questions using the
conversation so far.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
}

// SetServices configures the services the commands use.
func SetServices(s Services) {
	settingsService = s.Settings
	historyService = s.History
	coreFactory = s.Core
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. Cancelling ctx interrupts the running
// command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// core returns the provider-backed services.
func core() (*Core, error) {
	if coreFactory == nil {
		return nil, errors.New("core services not configured")
	}
	c, err := coreFactory()
	if err != nil {
		return nil, err
	}
	if c == nil || c.Sessions == nil {
		return nil, errors.New("session service not configured")
	}
	return c, nil
}

// currentSettings returns the stored settings, or the defaults when no
// settings service is configured.
func currentSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		defaults := domain.DefaultAppSettings()
		return &defaults, nil
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// usageError marks err as a command-line mistake.
func usageError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
