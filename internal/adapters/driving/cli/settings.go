package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sightline/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change recording, scan, navigation, gateway and sensor
settings. Values are stored in config.toml under the config directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting, for example:

  sightline settings set navigation.reached_threshold 0.85
  sightline settings set recording.interval 2s`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsReset,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Configure the gateway and sensors step by step, then check the gateway.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

// wizardKeys are the settings the wizard asks for, in order.
var wizardKeys = []struct {
	key    string
	prompt string
}{
	{"gateway.base_url", "Embedding gateway URL"},
	{"sensors.frames_dir", "Camera frames directory"},
	{"sensors.compass_addr", "Compass UDP address"},
	{"recording.stride_length", "Stride length in metres"},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(_ context.Context, rt *Runtime) error {
		settings, err := rt.Settings.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}

		cmd.Println("Current Settings")
		cmd.Println("================")

		section := ""
		for _, key := range rt.Settings.Keys() {
			group, name, _ := strings.Cut(key, ".")
			if group != section {
				section = group
				cmd.Println()
				cmd.Printf("[%s]\n", section)
			}
			value, _ := services.Lookup(settings, key)
			if value == "" {
				value = "(not set)"
			}
			cmd.Printf("  %-22s %s\n", name, value)
		}

		if err := settings.Validate(); err != nil {
			cmd.Println()
			cmd.Printf("Warning: %v\n", err)
		}
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(_ context.Context, rt *Runtime) error {
		if err := rt.Settings.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", args[0], err)
		}
		cmd.Printf("%s = %s\n", args[0], args[1])
		return nil
	})
}

func runSettingsReset(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(_ context.Context, rt *Runtime) error {
		defaults := rt.Settings.GetDefaults()
		if err := rt.Settings.Save(&defaults); err != nil {
			return fmt.Errorf("failed to reset settings: %w", err)
		}
		cmd.Println("Settings restored to defaults.")
		return nil
	})
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		cmd.Println("sightline Settings Wizard")
		cmd.Println("=========================")
		cmd.Println()

		reader := bufio.NewReader(cmd.InOrStdin())
		for i, step := range wizardKeys {
			settings, err := rt.Settings.Get()
			if err != nil {
				return fmt.Errorf("failed to get settings: %w", err)
			}
			current, _ := services.Lookup(settings, step.key)

			cmd.Printf("Step %d: %s [%s]: ", i+1, step.prompt, current)
			input := readLine(reader)
			if input == "" {
				continue
			}
			if err := rt.Settings.Set(step.key, input); err != nil {
				return fmt.Errorf("failed to set %s: %w", step.key, err)
			}
		}

		settings, err := rt.Settings.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		rt.App = *settings

		cmd.Println()
		cmd.Print("Checking gateway... ")
		if err := rt.Gateway().Ping(ctx); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			cmd.Println("Settings were saved; start the gateway and run 'sightline gateway ping'.")
			return nil
		}
		cmd.Println("OK")
		return nil
	})
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
