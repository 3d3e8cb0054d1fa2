package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dayuer/simplex-bot-go/internal/chat"
)

var sendCmd = &cobra.Command{
	Use:   "send <chat> <text...>",
	Short: "Send a text message, an image or a file to a chat",
	Example: "  simplexbot send '#devs' hello everyone\n" +
		"  simplexbot send @alice --image ./showcase.png",
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

var (
	sendImage string
	sendFile  string
)

func init() {
	sendCmd.Flags().StringVar(&sendImage, "image", "", "Path of an image to send")
	sendCmd.Flags().StringVar(&sendFile, "file", "", "Path of a file to send")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	t, name, err := chat.ParseRef(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if text == "" && sendImage == "" && sendFile == "" {
		return fmt.Errorf("nothing to send: give a text, --image or --file")
	}

	ctx := cmd.Context()
	c, err := connectClient(ctx, nil)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if sendImage != "" {
		if _, err := c.SendImage(ctx, t, name, sendImage); err != nil {
			return err
		}
	}
	if sendFile != "" {
		if _, err := c.SendFile(ctx, t, name, sendFile); err != nil {
			return err
		}
	}
	if text != "" {
		items, err := c.SendTextMessage(ctx, t, name, text)
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Printf("✓ Sent item %d to %s\n", it.ChatItem.Meta.ItemID, chat.Ref(t, name))
		}
	}
	return nil
}
