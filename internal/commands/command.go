// Package commands maps chat text to registered bot commands.
//
// A Dispatcher takes each normalized chat message through a fixed pipeline:
// filter, seen-reaction, lookup, permission check, argument check, cooldown
// check and finally the handler. Rejections are answered in the chat and do
// not stop the listen loop.
package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dayuer/simplex-bot-go/internal/chat"
	"github.com/dayuer/simplex-bot-go/internal/client"
)

// Handler executes a command. args holds exactly Command.Args tokens.
type Handler func(ctx context.Context, c *client.Client, msg chat.Message, args []string) error

// Command describes a registered command. Its exported fields must not be
// changed once it has been registered.
type Command struct {
	Name        string
	Description string
	Args        int
	MinRole     chat.Role

	// SenderCooldown throttles the command per chat, IssuerCooldown per
	// member within a chat. Zero disables the window.
	SenderCooldown time.Duration
	IssuerCooldown time.Duration

	Handler Handler

	mu         sync.Mutex
	senderLast map[string]time.Time
	issuerLast map[string]time.Time
}

func (c *Command) validate() error {
	if c.Name == "" {
		return fmt.Errorf("command has no name")
	}
	if c.Handler == nil {
		return fmt.Errorf("command %q has no handler", c.Name)
	}
	if c.Args < 0 {
		return fmt.Errorf("command %q: negative argument count", c.Name)
	}
	if c.SenderCooldown < 0 || c.IssuerCooldown < 0 {
		return fmt.Errorf("command %q: negative cooldown", c.Name)
	}
	if c.MinRole != "" {
		if _, ok := c.MinRole.Rank(); !ok {
			return fmt.Errorf("command %q: role %q cannot be used as a minimum role", c.Name, c.MinRole)
		}
	}
	return nil
}

// allow checks both cooldown windows for msg at now. When neither window is
// active it stamps both and returns true; otherwise it returns the longest
// remaining wait and leaves the state untouched.
func (c *Command) allow(msg chat.Message, now time.Time) (time.Duration, bool) {
	if c.SenderCooldown <= 0 && c.IssuerCooldown <= 0 {
		return 0, true
	}

	senderKey := msg.ChatRef()
	issuerKey := senderKey + "\x00" + msg.Contact

	c.mu.Lock()
	defer c.mu.Unlock()

	var wait time.Duration
	if c.SenderCooldown > 0 {
		if last, ok := c.senderLast[senderKey]; ok {
			wait = max(wait, c.SenderCooldown-now.Sub(last))
		}
	}
	if c.IssuerCooldown > 0 {
		if last, ok := c.issuerLast[issuerKey]; ok {
			wait = max(wait, c.IssuerCooldown-now.Sub(last))
		}
	}
	if wait > 0 {
		return wait, false
	}

	if c.SenderCooldown > 0 {
		if c.senderLast == nil {
			c.senderLast = make(map[string]time.Time)
		}
		c.senderLast[senderKey] = now
	}
	if c.IssuerCooldown > 0 {
		if c.issuerLast == nil {
			c.issuerLast = make(map[string]time.Time)
		}
		c.issuerLast[issuerKey] = now
	}
	return 0, true
}

// Usage returns a one-line summary such as "!kick <1 arg> (admin): Remove a member".
func (c *Command) Usage(prefix string) string {
	s := prefix + c.Name
	switch c.Args {
	case 0:
	case 1:
		s += " <1 arg>"
	default:
		s += fmt.Sprintf(" <%d args>", c.Args)
	}
	if c.MinRole != "" {
		s += fmt.Sprintf(" (%s)", c.MinRole)
	}
	if c.Description != "" {
		s += ": " + c.Description
	}
	return s
}
