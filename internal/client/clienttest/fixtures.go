package clienttest

import "time"

// Resp builds a response object with the given tag.
func Resp(tag string, fields map[string]any) map[string]any {
	out := map[string]any{"type": tag}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// NewChatItems wraps chat items in a newChatItems event.
func NewChatItems(items ...map[string]any) map[string]any {
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = it
	}
	return Resp("newChatItems", map[string]any{"chatItems": list})
}

// ChatItemUpdated wraps a single chat item in a chatItemUpdated event.
func ChatItemUpdated(item map[string]any) map[string]any {
	return Resp("chatItemUpdated", map[string]any{"chatItem": item})
}

// GroupItem builds a text message sent by member (with role) to group.
func GroupItem(groupID int64, group string, memberID int64, member, role, text string, itemID int64, ts time.Time) map[string]any {
	return map[string]any{
		"chatInfo": map[string]any{
			"type": "group",
			"groupInfo": map[string]any{
				"groupId":          groupID,
				"localDisplayName": group,
				"membership":       map[string]any{"localDisplayName": "bot", "memberRole": "owner"},
			},
		},
		"chatItem": map[string]any{
			"chatDir": map[string]any{
				"type": "groupRcv",
				"groupMember": map[string]any{
					"groupMemberId":    memberID,
					"localDisplayName": member,
					"memberRole":       role,
				},
			},
			"meta":    meta(itemID, text, ts),
			"content": map[string]any{"type": "rcvMsgContent", "msgContent": map[string]any{"type": "text", "text": text}},
		},
	}
}

// GroupEvent builds a system-generated group item with no message content.
func GroupEvent(groupID int64, group, text string, itemID int64, ts time.Time) map[string]any {
	return map[string]any{
		"chatInfo": map[string]any{
			"type":      "group",
			"groupInfo": map[string]any{"groupId": groupID, "localDisplayName": group},
		},
		"chatItem": map[string]any{
			"chatDir": map[string]any{"type": "groupRcv", "groupMember": map[string]any{"groupMemberId": 1, "localDisplayName": "system", "memberRole": "owner"}},
			"meta":    meta(itemID, text, ts),
			"content": map[string]any{"type": "rcvGroupEvent"},
		},
	}
}

// DirectItem builds a text message received from contact.
func DirectItem(contactID int64, contact, text string, itemID int64, ts time.Time) map[string]any {
	return map[string]any{
		"chatInfo": map[string]any{
			"type":    "direct",
			"contact": map[string]any{"contactId": contactID, "localDisplayName": contact},
		},
		"chatItem": map[string]any{
			"chatDir": map[string]any{"type": "directRcv"},
			"meta":    meta(itemID, text, ts),
			"content": map[string]any{"type": "rcvMsgContent", "msgContent": map[string]any{"type": "text", "text": text}},
		},
	}
}

func meta(itemID int64, text string, ts time.Time) map[string]any {
	return map[string]any{
		"itemId":    itemID,
		"itemTs":    ts.UTC().Format(time.RFC3339Nano),
		"itemText":  text,
		"createdAt": ts.UTC().Format(time.RFC3339Nano),
		"updatedAt": ts.UTC().Format(time.RFC3339Nano),
	}
}
