package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure chunking, retrieval, AI providers, and other options.

Settings are stored in ~/.docqa/config.toml. Use "settings set" to change a
single value by its dotted key.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Set a single setting by its dotted key.

Examples:
  docqa settings set chunking.size 800
  docqa settings set llm.provider anthropic
  docqa settings set retrieval.index ivf`,
	Args: exactArgs(2),
	RunE: runSettingsSet,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the AI providers are reachable",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, key := range settingsService.Keys() {
		value, err := settingsService.Value(key)
		if err != nil {
			return fmt.Errorf("failed to get setting %s: %w", key, err)
		}

		group, name, _ := strings.Cut(key, ".")
		if group != section {
			section = group
			cmd.Println()
			cmd.Printf("[%s]\n", section)
		}
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %s: %s\n", name, value)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value, err := settingsService.Value(args[0])
	if err != nil {
		return fmt.Errorf("failed to get setting %s: %w", args[0], err)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var failed []string
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("Embedding: FAILED (%v)\n", err)
		failed = append(failed, "embedding")
	} else {
		cmd.Println("Embedding: OK")
	}
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("LLM: FAILED (%v)\n", err)
		failed = append(failed, "llm")
	} else {
		cmd.Println("LLM: OK")
	}

	if len(failed) > 0 {
		return fmt.Errorf("providers unreachable: %s", strings.Join(failed, ", "))
	}
	return nil
}
