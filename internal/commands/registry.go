package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dayuer/simplex-bot-go/internal/chat"
)

// DefaultPrefix marks chat text as a command attempt.
const DefaultPrefix = "!"

// Registry holds the registered commands, keyed by prefixed name.
type Registry struct {
	prefix string

	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRegistry creates an empty registry for prefix.
func NewRegistry(prefix string) *Registry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Registry{
		prefix:   prefix,
		commands: make(map[string]*Command),
	}
}

// Prefix returns the command prefix.
func (r *Registry) Prefix() string { return r.prefix }

// Register adds cmd. A command without a minimum role requires member.
func (r *Registry) Register(cmd *Command) error {
	if cmd.MinRole == "" {
		cmd.MinRole = chat.RoleMember
	}
	if err := cmd.validate(); err != nil {
		return err
	}
	if strings.ContainsAny(cmd.Name, " \t\n") {
		return fmt.Errorf("command %q: name contains whitespace", cmd.Name)
	}

	key := r.prefix + cmd.Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.commands[key]; dup {
		return fmt.Errorf("command %q already registered", key)
	}
	r.commands[key] = cmd
	return nil
}

// Lookup returns the command registered under token, e.g. "!kick".
func (r *Registry) Lookup(token string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[token]
	return cmd, ok
}

// All returns the registered commands sorted by name.
func (r *Registry) All() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
