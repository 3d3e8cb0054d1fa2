// Package chat defines the domain types shared by the client and the command dispatcher.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// Type is the sigil that prefixes a chat name in command text.
type Type string

const (
	Direct         Type = "@"
	Group          Type = "#"
	ContactRequest Type = "<@"
)

// ParseType maps the chatInfo "type" field of a chat item to a sigil.
func ParseType(s string) (Type, bool) {
	switch s {
	case "direct":
		return Direct, true
	case "group":
		return Group, true
	case "contactRequest":
		return ContactRequest, true
	}
	return "", false
}

// Ref returns the compact chat reference used in command text, e.g. "#devs".
func Ref(t Type, name string) string {
	return string(t) + name
}

// ParseRef splits a chat reference such as "#devs" or "<@alice" into its
// type and name.
func ParseRef(ref string) (Type, string, error) {
	for _, t := range []Type{ContactRequest, Direct, Group} {
		if name, ok := strings.CutPrefix(ref, string(t)); ok {
			if name == "" {
				return "", "", fmt.Errorf("chat ref %q has no name", ref)
			}
			return t, name, nil
		}
	}
	return "", "", fmt.Errorf("chat ref %q must start with @, # or <@", ref)
}

// Message is one normalized chat item. It is never mutated after creation.
type Message struct {
	ChatType Type

	// Sender is the chat the item arrived in: the group name for group chats,
	// the contact name for direct chats. SenderID is the matching numeric id.
	Sender   string
	SenderID int64

	// Contact is the member that acted. Empty for system-generated group events.
	Contact     string
	ContactID   int64
	ContactRole Role

	// Group is empty outside group chats.
	Group   string
	GroupID int64

	Text      string
	ItemID    int64
	Timestamp time.Time

	// ImagePreview carries the inline image data when the item is an image.
	ImagePreview string
}

// ChatRef returns the reference of the chat the message arrived in.
func (m Message) ChatRef() string {
	return Ref(m.ChatType, m.Sender)
}

// InGroup reports whether the message came from a group chat.
func (m Message) InGroup() bool {
	return m.ChatType == Group
}
