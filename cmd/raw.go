package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dayuer/simplex-bot-go/internal/client"
)

var rawCmd = &cobra.Command{
	Use:   "raw [command]",
	Short: "Send a raw command to the daemon and print the response",
	Long: "Send a raw command such as '/contacts' and print the JSON response.\n" +
		"Without an argument, starts an interactive prompt.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
}

func runRaw(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := connectClient(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if len(args) == 1 {
		ev, err := c.Send(ctx, args[0])
		if err != nil {
			return err
		}
		printJSON(os.Stdout, ev.Payload)
		return nil
	}

	// Interactive mode
	fmt.Println("🤖 simplexbot raw mode (type 'exit' to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	exitCommands := map[string]bool{
		"exit": true, "quit": true, "/exit": true, "/quit": true, ":q": true,
	}

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if exitCommands[strings.ToLower(input)] {
			fmt.Println("Goodbye!")
			break
		}

		ev, err := c.Send(ctx, input)
		if err != nil {
			if client.IsRecoverable(err) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			return err
		}
		printJSON(os.Stdout, ev.Payload)
	}
	return scanner.Err()
}
