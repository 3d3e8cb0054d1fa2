package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dayuer/simplex-bot-go/internal/chat"
	"github.com/dayuer/simplex-bot-go/internal/client"
	"github.com/dayuer/simplex-bot-go/internal/metrics"
)

// Defaults applied by NewDispatcher.
const (
	DefaultReaction   = "🚀"
	DefaultMaxBacklog = 5 * time.Second
)

// Dispatch outcomes, used for metrics and logs.
const (
	OutcomeIgnored  = "ignored"
	OutcomeUnknown  = "unknown"
	OutcomeDenied   = "denied"
	OutcomeBadArgs  = "bad_args"
	OutcomeCooldown = "cooldown"
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
)

// Options configures a Dispatcher.
type Options struct {
	// Reaction is the emoji put on every message recognized as a command attempt.
	Reaction   string
	MaxBacklog time.Duration
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// Dispatcher runs chat messages through the command pipeline.
type Dispatcher struct {
	client   *client.Client
	registry *Registry
	opts     Options
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher for the commands in reg.
func NewDispatcher(c *client.Client, reg *Registry, opts Options) *Dispatcher {
	if opts.Reaction == "" {
		opts.Reaction = DefaultReaction
	}
	if opts.MaxBacklog <= 0 {
		opts.MaxBacklog = DefaultMaxBacklog
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		client:   c,
		registry: reg,
		opts:     opts,
		logger:   opts.Logger.With("component", "commands"),
	}
}

// Run processes chat messages until the stream ends, returning nil, or ctx is
// canceled, returning ctx.Err(). Recoverable client errors are logged and the
// loop moves on; any other error stops it.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("listening for commands", "prefix", d.registry.Prefix(), "commands", d.registry.Len())
	for {
		msg, ok := d.client.NextChatMessage(ctx, d.opts.MaxBacklog)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.logger.Info("message stream closed")
			return nil
		}

		if err := d.Dispatch(ctx, *msg); err != nil {
			if !client.IsRecoverable(err) {
				return err
			}
			d.logger.Warn("caught error", "err", err, "chat", msg.ChatRef())
		}
	}
}

// Dispatch handles one chat message. Validation failures and handler
// failures are answered in the chat and reported as nil; the returned error
// comes from talking to the daemon.
func (d *Dispatcher) Dispatch(ctx context.Context, msg chat.Message) error {
	outcome, err := d.dispatch(ctx, msg)
	d.opts.Metrics.Dispatch(outcome)
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, msg chat.Message) (string, error) {
	if msg.Contact == "" || msg.Text == "" {
		return OutcomeIgnored, nil
	}
	tokens := strings.Fields(msg.Text)
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], d.registry.Prefix()) {
		return OutcomeIgnored, nil
	}
	d.logger.Debug("command attempt", "chat", msg.ChatRef(), "issuer", msg.Contact, "text", msg.Text)

	if err := d.client.React(ctx, msg.ChatType, msg.SenderID, msg.ItemID, d.opts.Reaction, true); err != nil {
		if !client.IsRecoverable(err) {
			return OutcomeFailed, err
		}
		d.logger.Warn("failed to react to command", "err", err, "chat", msg.ChatRef(), "itemId", msg.ItemID)
	}

	name := tokens[0]
	cmd, ok := d.registry.Lookup(name)
	if !ok {
		return OutcomeUnknown, d.reply(ctx, msg, "Unknown command")
	}

	if outcome, err := d.check(cmd, msg, tokens[1:]); err != nil {
		d.logger.Info("command rejected", "command", name, "issuer", msg.Contact, "chat", msg.ChatRef(), "reason", outcome)
		return outcome, d.reply(ctx, msg, errors.Unwrap(err).Error())
	}

	d.logger.Info("executing command", "command", name, "chat", msg.ChatRef(), "issuer", msg.Contact, "text", msg.Text)
	if err := d.execute(ctx, cmd, msg, tokens[1:]); err != nil {
		d.logger.Warn("command failed", "command", name, "chat", msg.ChatRef(), "err", err)
		return OutcomeFailed, d.reply(ctx, msg, fmt.Sprintf("Failed to run command '%s'", cmd.Name))
	}
	return OutcomeOK, nil
}

// check runs the permission, argument and cooldown checks in that order.
// A rejection is a KindValidation *client.Error whose cause is the reply text.
func (d *Dispatcher) check(cmd *Command, msg chat.Message, args []string) (string, error) {
	reject := func(outcome, format string, a ...any) (string, error) {
		return outcome, &client.Error{
			Kind:    client.KindValidation,
			Command: cmd.Name,
			Err:     fmt.Errorf(format, a...),
		}
	}

	if msg.InGroup() && !msg.ContactRole.Satisfies(cmd.MinRole) {
		return reject(OutcomeDenied, "You do not have permission to run this command (required: %s)", cmd.MinRole)
	}
	if len(args) != cmd.Args {
		return reject(OutcomeBadArgs, "Incorrect number of arguments (required: %d)", cmd.Args)
	}
	if wait, ok := cmd.allow(msg, d.opts.Now()); !ok {
		secs := math.Round(wait.Seconds()*10) / 10
		return reject(OutcomeCooldown, "On cooldown, try again in %.1f seconds", secs)
	}
	return OutcomeOK, nil
}

// execute runs the handler, turning a panic into an error.
func (d *Dispatcher) execute(ctx context.Context, cmd *Command, msg chat.Message, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &client.Error{Kind: client.KindExecution, Command: cmd.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := cmd.Handler(ctx, d.client, msg, args); err != nil {
		return &client.Error{Kind: client.KindExecution, Command: cmd.Name, Err: err}
	}
	return nil
}

// reply answers the issuer in the chat the message came from.
func (d *Dispatcher) reply(ctx context.Context, msg chat.Message, text string) error {
	_, err := d.client.SendTextMessage(ctx, msg.ChatType, msg.Sender, fmt.Sprintf("@%s: %s", msg.Contact, text))
	return err
}
