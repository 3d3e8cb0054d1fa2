// Package bots contains the stock chat commands shipped with simplexbot.
package bots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dayuer/simplex-bot-go/internal/chat"
	"github.com/dayuer/simplex-bot-go/internal/client"
	"github.com/dayuer/simplex-bot-go/internal/commands"
)

// ShowcaseCooldown is the per-chat cooldown of the showcase command.
const ShowcaseCooldown = 30 * time.Second

// Defaults returns the stock commands. help lists the commands of reg.
func Defaults(reg *commands.Registry, showcaseImage string) []*commands.Command {
	return []*commands.Command{
		SayHello(),
		Kick(),
		Showcase(showcaseImage),
		Help(reg),
	}
}

// SayHello greets the issuer.
func SayHello() *commands.Command {
	return &commands.Command{
		Name:        "say_hello",
		Description: "Greet the command issuer",
		MinRole:     chat.RoleMember,
		Handler: func(ctx context.Context, c *client.Client, msg chat.Message, _ []string) error {
			return reply(ctx, c, msg, "Hello! This was sent automagically")
		},
	}
}

// Kick removes a member from the group the command was issued in.
func Kick() *commands.Command {
	return &commands.Command{
		Name:        "kick",
		Description: "Remove a member from the group",
		Args:        1,
		MinRole:     chat.RoleAdmin,
		Handler: func(ctx context.Context, c *client.Client, msg chat.Message, args []string) error {
			if !msg.InGroup() || msg.Group == "" {
				_, err := c.SendTextMessage(ctx, msg.ChatType, msg.Sender, "Not in a group")
				return err
			}

			subject := strings.TrimPrefix(args[0], "@")
			text := fmt.Sprintf("@%s: Kicked member '%s' from '%s'", msg.Contact, subject, msg.Group)
			if err := c.KickGroupMember(ctx, msg.Group, subject); err != nil {
				text = fmt.Sprintf("@%s: Failed to kick group member '%s'", msg.Contact, subject)
			}
			_, err := c.SendTextMessage(ctx, chat.Group, msg.Group, text)
			return err
		},
	}
}

// Showcase sends the image at imagePath, at most once per chat every
// ShowcaseCooldown. Without an image it answers with a short notice.
func Showcase(imagePath string) *commands.Command {
	return &commands.Command{
		Name:           "showcase",
		Description:    "Send a showcase image of the bot API",
		MinRole:        chat.RoleMember,
		SenderCooldown: ShowcaseCooldown,
		Handler: func(ctx context.Context, c *client.Client, msg chat.Message, _ []string) error {
			if imagePath == "" {
				return reply(ctx, c, msg, "No showcase image configured")
			}
			_, err := c.SendImage(ctx, msg.ChatType, msg.Sender, imagePath)
			return err
		},
	}
}

// Help lists the commands registered in reg.
func Help(reg *commands.Registry) *commands.Command {
	return &commands.Command{
		Name:        "help",
		Description: "List available commands",
		MinRole:     chat.RoleMember,
		Handler: func(ctx context.Context, c *client.Client, msg chat.Message, _ []string) error {
			var b strings.Builder
			b.WriteString("Available commands:")
			for _, cmd := range reg.All() {
				b.WriteString("\n")
				b.WriteString(cmd.Usage(reg.Prefix()))
			}
			return reply(ctx, c, msg, b.String())
		},
	}
}

func reply(ctx context.Context, c *client.Client, msg chat.Message, text string) error {
	_, err := c.SendTextMessage(ctx, msg.ChatType, msg.Sender, fmt.Sprintf("@%s: %s", msg.Contact, text))
	return err
}
