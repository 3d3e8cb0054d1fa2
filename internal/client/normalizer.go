package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dayuer/simplex-bot-go/internal/bus"
	"github.com/dayuer/simplex-bot-go/internal/chat"
)

// NextChatMessage returns the next normalized chat message.
//
// Items whose timestamp lags the current time by more than maxBacklog are
// dropped so a slow start does not replay history. ok is false once the
// event stream has ended or ctx is done.
func (c *Client) NextChatMessage(ctx context.Context, maxBacklog time.Duration) (msg *chat.Message, ok bool) {
	c.chatMu.Lock()
	defer c.chatMu.Unlock()

	for {
		if len(c.chatQueue) > 0 {
			m := c.chatQueue[0]
			c.chatQueue = c.chatQueue[1:]
			return &m, true
		}

		ev, err := c.events.Pop(ctx)
		if err != nil {
			return nil, false
		}

		items, err := chatItemsOf(ev)
		if err != nil {
			c.logger.Warn("skipping malformed chat event", "type", ev.Type, "err", err)
			continue
		}

		now := c.now()
		for _, item := range items {
			m, ok := normalize(item)
			if !ok {
				c.logger.Debug("skipping chat item of unknown chat type", "type", item.ChatInfo.Type)
				continue
			}
			if lag := now.Sub(m.Timestamp); lag > maxBacklog {
				c.opts.Metrics.ChatMessage("stale")
				c.logger.Warn("skipped backlog message",
					"lag", lag.Round(time.Millisecond),
					"maxBacklog", maxBacklog,
					"chat", m.ChatRef(),
					"itemId", m.ItemID,
				)
				continue
			}
			c.opts.Metrics.ChatMessage("normalized")
			c.chatQueue = append(c.chatQueue, m)
		}
	}
}

// chatItemsOf expands a recognized event into its chat items.
// Events of other kinds expand to nothing.
func chatItemsOf(ev bus.Event) ([]AChatItem, error) {
	switch ev.Type {
	case RespNewChatItems:
		var r struct {
			ChatItems []AChatItem `json:"chatItems"`
		}
		if err := ev.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		return r.ChatItems, nil
	case RespNewChatItem, RespChatItemUpdated:
		var r struct {
			ChatItem AChatItem `json:"chatItem"`
		}
		if err := ev.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ev.Type, err)
		}
		return []AChatItem{r.ChatItem}, nil
	default:
		return nil, nil
	}
}

// normalize converts a raw chat item into a chat.Message.
func normalize(item AChatItem) (chat.Message, bool) {
	ct, ok := chat.ParseType(item.ChatInfo.Type)
	if !ok {
		return chat.Message{}, false
	}

	ci := item.ChatItem
	m := chat.Message{
		ChatType:  ct,
		Text:      ci.Meta.ItemText,
		ItemID:    ci.Meta.ItemID,
		Timestamp: ci.Meta.ItemTs,
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = ci.Meta.CreatedAt
	}

	mc := ci.Content.MsgContent
	if mc != nil {
		if mc.Text != "" {
			m.Text = mc.Text
		}
		m.ImagePreview = mc.Image
	}

	switch ct {
	case chat.Group:
		if g := item.ChatInfo.GroupInfo; g != nil {
			m.Group = g.LocalDisplayName
			m.GroupID = g.GroupID
			m.Sender = g.LocalDisplayName
			m.SenderID = g.GroupID
		}
		// Group events (joins, role changes) carry no message content and no actor.
		if member := ci.ChatDir.GroupMember; member != nil && ci.ChatDir.Type == DirGroupRcv && mc != nil {
			m.Contact = member.LocalDisplayName
			m.ContactID = member.GroupMemberID
			m.ContactRole = chat.Role(member.MemberRole)
		}
	case chat.Direct:
		if contact := item.ChatInfo.Contact; contact != nil {
			m.Sender = contact.LocalDisplayName
			m.SenderID = contact.ContactID
			if ci.ChatDir.Type == DirDirectRcv {
				m.Contact = contact.LocalDisplayName
				m.ContactID = contact.ContactID
			}
		}
	case chat.ContactRequest:
		if r := item.ChatInfo.ContactRequest; r != nil {
			m.Sender = r.LocalDisplayName
			m.SenderID = r.ContactRequestID
		}
	}
	return m, true
}
