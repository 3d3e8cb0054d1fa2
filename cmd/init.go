package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dayuer/simplex-bot-go/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration and command overrides file",
	RunE:  runInit,
}

const commandsTemplate = `# Adjust the stock commands without recompiling.
# Durations use Go syntax (10s, 1m30s). Unset fields keep the built-in value.
commands:
  kick:
    min_role: admin
  showcase:
    sender_cooldown: 30s
  # say_hello:
  #   disabled: true
`

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	dir := filepath.Dir(path)
	commandsPath := filepath.Join(dir, "commands.yaml")

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
	} else {
		c := config.DefaultConfig()
		c.Bot.CommandsFile = commandsPath
		if err := config.Save(c, path); err != nil {
			return fmt.Errorf("creating config: %w", err)
		}
		fmt.Printf("✓ Created config at %s\n", path)
	}

	if _, err := os.Stat(commandsPath); os.IsNotExist(err) {
		if err := os.WriteFile(commandsPath, []byte(commandsTemplate), 0644); err != nil {
			return fmt.Errorf("creating commands file: %w", err)
		}
		fmt.Printf("  Created %s\n", filepath.Base(commandsPath))
	}
	return nil
}
