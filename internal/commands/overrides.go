package commands

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dayuer/simplex-bot-go/internal/chat"
)

// Override adjusts one built-in command. Unset fields keep the built-in value.
type Override struct {
	Disabled       bool           `yaml:"disabled,omitempty"`
	Description    *string        `yaml:"description,omitempty"`
	MinRole        *chat.Role     `yaml:"min_role,omitempty"`
	SenderCooldown *time.Duration `yaml:"sender_cooldown,omitempty"`
	IssuerCooldown *time.Duration `yaml:"issuer_cooldown,omitempty"`
}

// Overrides maps command names (without prefix) to their override.
type Overrides map[string]Override

// overridesFile is the top-level structure of commands.yaml.
type overridesFile struct {
	Commands Overrides `yaml:"commands"`
}

// LoadOverrides reads a commands.yaml file. A missing file yields no overrides.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read commands file: %w", err)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse commands file: %w", err)
	}
	return f.Commands, nil
}

// Apply adjusts cmds in place and returns the ones that remain enabled.
// It must run before the commands are registered.
func (o Overrides) Apply(cmds []*Command) ([]*Command, error) {
	known := make(map[string]bool, len(cmds))
	out := make([]*Command, 0, len(cmds))
	for _, c := range cmds {
		known[c.Name] = true
		ov, ok := o[c.Name]
		if !ok {
			out = append(out, c)
			continue
		}
		if ov.Disabled {
			continue
		}
		if ov.Description != nil {
			c.Description = *ov.Description
		}
		if ov.MinRole != nil {
			if _, ranked := ov.MinRole.Rank(); !ranked {
				return nil, fmt.Errorf("override %q: role %q cannot be used as a minimum role", c.Name, *ov.MinRole)
			}
			c.MinRole = *ov.MinRole
		}
		if ov.SenderCooldown != nil {
			c.SenderCooldown = *ov.SenderCooldown
		}
		if ov.IssuerCooldown != nil {
			c.IssuerCooldown = *ov.IssuerCooldown
		}
		out = append(out, c)
	}
	for name := range o {
		if !known[name] {
			return nil, fmt.Errorf("override for unknown command %q", name)
		}
	}
	return out, nil
}
