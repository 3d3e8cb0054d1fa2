package client

import (
	"encoding/json"
	"time"
)

// Response tags produced by the chat daemon.
const (
	RespVersionInfo            = "versionInfo"
	RespUserProfile            = "userProfile"
	RespUserContactLink        = "userContactLink"
	RespUserContactLinkCreated = "userContactLinkCreated"
	RespUserContactLinkUpdated = "userContactLinkUpdated"
	RespNewChatItems           = "newChatItems"
	RespNewChatItem            = "newChatItem"
	RespChatItemUpdated        = "chatItemUpdated"
	RespContactsList           = "contactsList"
	RespGroupsList             = "groupsList"
	RespUserDeletedMember      = "userDeletedMember"
	RespNetworkConfig          = "networkConfig"
	RespChatItems              = "chatItems"
	RespChats                  = "chats"
	RespChatItemReaction       = "chatItemReaction"
	RespChatCmdError           = "chatCmdError"
)

// request is the outgoing frame.
type request struct {
	CorrID string `json:"corrId"`
	Cmd    string `json:"cmd"`
}

// frame is the incoming envelope.
type frame struct {
	CorrID string          `json:"corrId,omitempty"`
	Resp   json.RawMessage `json:"resp"`
}

// AChatItem is a chat item together with the chat it belongs to.
type AChatItem struct {
	ChatInfo ChatInfo `json:"chatInfo"`
	ChatItem ChatItem `json:"chatItem"`
}

// ChatInfo identifies a conversation.
type ChatInfo struct {
	Type           string          `json:"type"`
	Contact        *ContactInfo    `json:"contact,omitempty"`
	GroupInfo      *GroupInfo      `json:"groupInfo,omitempty"`
	ContactRequest *ContactRequest `json:"contactRequest,omitempty"`
}

// ContactInfo is the subset of a contact record the bot relies on.
type ContactInfo struct {
	ContactID         int64                       `json:"contactId"`
	LocalDisplayName  string                      `json:"localDisplayName"`
	Profile           ContactProfile              `json:"profile"`
	MergedPreferences map[string]MergedPreference `json:"mergedPreferences,omitempty"`
}

// ContactProfile is a contact's public profile.
type ContactProfile struct {
	DisplayName string                `json:"displayName"`
	FullName    string                `json:"fullName,omitempty"`
	Preferences map[string]Preference `json:"preferences,omitempty"`
}

// Preference is a single allow/deny feature preference.
type Preference struct {
	Allow string `json:"allow"`
}

// MergedPreference is a feature preference resolved for both sides.
type MergedPreference struct {
	Enabled struct {
		ForUser    bool `json:"forUser"`
		ForContact bool `json:"forContact"`
	} `json:"enabled"`
}

// GroupInfo is the subset of a group record the bot relies on.
type GroupInfo struct {
	GroupID              int64                      `json:"groupId"`
	LocalDisplayName     string                     `json:"localDisplayName"`
	FullGroupPreferences map[string]GroupPreference `json:"fullGroupPreferences,omitempty"`
	Membership           GroupMember                `json:"membership"`
}

// GroupPreference is an on/off group feature.
type GroupPreference struct {
	Enable string `json:"enable"`
}

// GroupMember describes a member of a group.
type GroupMember struct {
	GroupMemberID          int64      `json:"groupMemberId"`
	LocalDisplayName       string     `json:"localDisplayName"`
	MemberRole             string     `json:"memberRole"`
	MemberCategory         string     `json:"memberCategory,omitempty"`
	MemberStatus           string     `json:"memberStatus,omitempty"`
	MemberContactID        *int64     `json:"memberContactId,omitempty"`
	InvitedBy              *InvitedBy `json:"invitedBy,omitempty"`
	InvitedByGroupMemberID *int64     `json:"invitedByGroupMemberId,omitempty"`
}

// InvitedBy records who invited a member.
type InvitedBy struct {
	Type        string `json:"type"`
	ByContactID *int64 `json:"byContactId,omitempty"`
}

// ContactRequest is a pending incoming contact request.
type ContactRequest struct {
	ContactRequestID int64  `json:"contactRequestId"`
	LocalDisplayName string `json:"localDisplayName"`
}

// ChatItem is one item of a conversation.
type ChatItem struct {
	ChatDir ChatDir     `json:"chatDir"`
	Meta    ItemMeta    `json:"meta"`
	Content ItemContent `json:"content"`
}

// ChatDir tells who sent an item.
type ChatDir struct {
	Type        string       `json:"type"`
	GroupMember *GroupMember `json:"groupMember,omitempty"`
}

// Chat directions that denote a received item.
const (
	DirDirectRcv = "directRcv"
	DirGroupRcv  = "groupRcv"
)

// ItemMeta carries identifiers and timestamps of an item.
type ItemMeta struct {
	ItemID    int64     `json:"itemId"`
	ItemTs    time.Time `json:"itemTs"`
	ItemText  string    `json:"itemText"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemContent is the payload of an item. MsgContent is nil for group and chat events.
type ItemContent struct {
	Type       string      `json:"type"`
	MsgContent *MsgContent `json:"msgContent,omitempty"`
}

// MsgContent is the content of a user message.
type MsgContent struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// Chat is a conversation with its latest items, as returned by /chats.
type Chat struct {
	ChatInfo  ChatInfo   `json:"chatInfo"`
	ChatItems []ChatItem `json:"chatItems"`
}

// chatCmdError is the error carrier returned instead of the expected response.
type chatCmdError struct {
	ChatError struct {
		Type       string `json:"type"`
		StoreError *struct {
			Type string `json:"type"`
		} `json:"storeError,omitempty"`
	} `json:"chatError"`
}
