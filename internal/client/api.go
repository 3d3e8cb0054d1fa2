package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dayuer/simplex-bot-go/internal/chat"
)

// request issues cmd, checks the response tag and decodes the payload into out.
// out may be nil when only the tag matters.
func (c *Client) request(ctx context.Context, cmd, want string, out any) error {
	ev, err := c.Send(ctx, cmd)
	if err != nil {
		return err
	}
	if ev.Type != want {
		return UnexpectedResponseError(cmd, ev.Type, want)
	}
	if out == nil {
		return nil
	}
	if err := ev.Decode(out); err != nil {
		return &Error{Kind: KindUnexpectedResponse, Command: cmd, Type: ev.Type, Expected: want, Err: err}
	}
	return nil
}

// Version returns the daemon version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var r struct {
		VersionInfo struct {
			Version string `json:"version"`
		} `json:"versionInfo"`
	}
	if err := c.request(ctx, "/version", RespVersionInfo, &r); err != nil {
		return "", err
	}
	return r.VersionInfo.Version, nil
}

// Profile is the active user's profile.
type Profile struct {
	Name        string
	Preferences map[string]bool
}

// Profile returns the active user's display name and feature preferences.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var r struct {
		User struct {
			Profile struct {
				DisplayName string `json:"displayName"`
			} `json:"profile"`
			FullPreferences map[string]Preference `json:"fullPreferences"`
		} `json:"user"`
	}
	if err := c.request(ctx, "/profile", RespUserProfile, &r); err != nil {
		return Profile{}, err
	}
	return Profile{
		Name:        r.User.Profile.DisplayName,
		Preferences: allowed(r.User.FullPreferences),
	}, nil
}

// UserAddress returns the user's contact address. ok is false when no
// address has been created yet.
func (c *Client) UserAddress(ctx context.Context) (addr string, ok bool, err error) {
	const cmd = "/show_address"
	ev, err := c.Send(ctx, cmd)
	if err != nil {
		return "", false, err
	}

	switch ev.Type {
	case RespUserContactLink:
		var r struct {
			ContactLink struct {
				ConnReqContact string `json:"connReqContact"`
			} `json:"contactLink"`
		}
		if err := ev.Decode(&r); err != nil {
			return "", false, &Error{Kind: KindUnexpectedResponse, Command: cmd, Type: ev.Type, Expected: RespUserContactLink, Err: err}
		}
		return r.ContactLink.ConnReqContact, true, nil
	case RespChatCmdError:
		var r chatCmdError
		if err := ev.Decode(&r); err == nil && r.ChatError.StoreError != nil &&
			r.ChatError.StoreError.Type == "userContactLinkNotFound" {
			return "", false, nil
		}
	}
	return "", false, UnexpectedResponseError(cmd, ev.Type, RespUserContactLink)
}

// CreateUserAddress creates a contact address and returns it.
func (c *Client) CreateUserAddress(ctx context.Context) (string, error) {
	var r struct {
		ConnReqContact string `json:"connReqContact"`
	}
	if err := c.request(ctx, "/address", RespUserContactLinkCreated, &r); err != nil {
		return "", err
	}
	return r.ConnReqContact, nil
}

// AutoAccept toggles automatic acceptance of contact requests on the user address.
func (c *Client) AutoAccept(ctx context.Context, on bool) error {
	return c.request(ctx, "/auto_accept "+onOff(on), RespUserContactLinkUpdated, nil)
}

// SendTextMessage sends text to the chat identified by t and name.
func (c *Client) SendTextMessage(ctx context.Context, t chat.Type, name, text string) ([]AChatItem, error) {
	return c.sendItems(ctx, chat.Ref(t, name)+" "+text)
}

// SendImage sends the image at path to the chat.
func (c *Client) SendImage(ctx context.Context, t chat.Type, name, path string) ([]AChatItem, error) {
	return c.sendItems(ctx, "/image "+chat.Ref(t, name)+" "+path)
}

// SendFile sends the file at path to the chat.
func (c *Client) SendFile(ctx context.Context, t chat.Type, name, path string) ([]AChatItem, error) {
	return c.sendItems(ctx, "/file "+chat.Ref(t, name)+" "+path)
}

func (c *Client) sendItems(ctx context.Context, cmd string) ([]AChatItem, error) {
	var r struct {
		ChatItems []AChatItem `json:"chatItems"`
	}
	if err := c.request(ctx, cmd, RespNewChatItems, &r); err != nil {
		return nil, err
	}
	return r.ChatItems, nil
}

// Contact is a contact with its resolved preferences.
type Contact struct {
	ID                int64
	Name              string
	Preferences       map[string]bool
	MergedPreferences map[string]bool
}

// Contacts lists the user's contacts.
func (c *Client) Contacts(ctx context.Context) ([]Contact, error) {
	var r struct {
		Contacts []ContactInfo `json:"contacts"`
	}
	if err := c.request(ctx, "/contacts", RespContactsList, &r); err != nil {
		return nil, err
	}

	out := make([]Contact, 0, len(r.Contacts))
	for _, ci := range r.Contacts {
		merged := make(map[string]bool, len(ci.MergedPreferences))
		for k, v := range ci.MergedPreferences {
			merged[k] = v.Enabled.ForUser && v.Enabled.ForContact
		}
		out = append(out, Contact{
			ID:                ci.ContactID,
			Name:              ci.LocalDisplayName,
			Preferences:       allowed(ci.Profile.Preferences),
			MergedPreferences: merged,
		})
	}
	return out, nil
}

// Group is a group the user belongs to, seen through the user's membership.
type Group struct {
	ID                     int64
	Name                   string
	Preferences            map[string]bool
	CurrentMembers         int
	InvitedByContactID     *int64
	InvitedByGroupMemberID *int64
	MemberName             string
	MemberRole             chat.Role
	MemberCategory         string
	MemberStatus           string
}

// Groups lists the groups the user belongs to.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var r struct {
		Groups [][2]json.RawMessage `json:"groups"`
	}
	const cmd = "/groups"
	if err := c.request(ctx, cmd, RespGroupsList, &r); err != nil {
		return nil, err
	}

	out := make([]Group, 0, len(r.Groups))
	for _, entry := range r.Groups {
		var (
			gi      GroupInfo
			summary struct {
				CurrentMembers int `json:"currentMembers"`
			}
		)
		if err := json.Unmarshal(entry[0], &gi); err != nil {
			return nil, &Error{Kind: KindUnexpectedResponse, Command: cmd, Type: RespGroupsList, Expected: RespGroupsList, Err: err}
		}
		if err := json.Unmarshal(entry[1], &summary); err != nil {
			return nil, &Error{Kind: KindUnexpectedResponse, Command: cmd, Type: RespGroupsList, Expected: RespGroupsList, Err: err}
		}

		prefs := make(map[string]bool, len(gi.FullGroupPreferences))
		for k, v := range gi.FullGroupPreferences {
			prefs[k] = v.Enable == "on"
		}
		g := Group{
			ID:                     gi.GroupID,
			Name:                   gi.LocalDisplayName,
			Preferences:            prefs,
			CurrentMembers:         summary.CurrentMembers,
			InvitedByGroupMemberID: gi.Membership.InvitedByGroupMemberID,
			MemberName:             gi.Membership.LocalDisplayName,
			MemberRole:             chat.Role(gi.Membership.MemberRole),
			MemberCategory:         gi.Membership.MemberCategory,
			MemberStatus:           gi.Membership.MemberStatus,
		}
		if inv := gi.Membership.InvitedBy; inv != nil {
			g.InvitedByContactID = inv.ByContactID
		}
		out = append(out, g)
	}
	return out, nil
}

// KickGroupMember removes member from group.
func (c *Client) KickGroupMember(ctx context.Context, group, member string) error {
	return c.request(ctx, fmt.Sprintf("/remove %s %s", group, member), RespUserDeletedMember, nil)
}

// NetworkSettings selects the network parameters to change. Empty fields are not sent.
type NetworkSettings struct {
	Socks            string // on|off|<host:port>
	SocksMode        string // always|onion
	SMPProxy         string // always|unknown|unprotected|never
	SMPProxyFallback string // no|protected|yes
	Timeout          string // seconds
}

func (s NetworkSettings) command() string {
	var b strings.Builder
	b.WriteString("/network")
	for _, p := range []struct{ key, val string }{
		{"socks", s.Socks},
		{"socks-mode", s.SocksMode},
		{"smp-proxy", s.SMPProxy},
		{"smp-proxy-fallback", s.SMPProxyFallback},
		{"timeout", s.Timeout},
	} {
		if p.val == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(p.key)
		b.WriteString("=")
		b.WriteString(p.val)
	}
	return b.String()
}

// NetworkConfig is the daemon's effective network configuration.
type NetworkConfig struct {
	SocksProxy       string `json:"socksProxy,omitempty"`
	SocksMode        string `json:"socksMode"`
	HostMode         string `json:"hostMode,omitempty"`
	RequiredHostMode bool   `json:"requiredHostMode"`
	SMPProxyMode     string `json:"smpProxyMode,omitempty"`
	SMPProxyFallback string `json:"smpProxyFallback,omitempty"`
	TCPTimeout       int64  `json:"tcpTimeout,omitempty"`
}

// Network applies s and returns the resulting configuration.
// With a zero s it only reads the current configuration.
func (c *Client) Network(ctx context.Context, s NetworkSettings) (NetworkConfig, error) {
	var r struct {
		NetworkConfig NetworkConfig `json:"networkConfig"`
	}
	if err := c.request(ctx, s.command(), RespNetworkConfig, &r); err != nil {
		return NetworkConfig{}, err
	}
	return r.NetworkConfig, nil
}

// Tail returns the last count items of the chat ref, or of all chats when
// ref is empty. A non-positive count uses the daemon's default.
func (c *Client) Tail(ctx context.Context, ref string, count int) ([]AChatItem, error) {
	cmd := "/tail"
	if ref != "" {
		cmd += " " + ref
	}
	if count > 0 {
		cmd += " " + strconv.Itoa(count)
	}

	var r struct {
		ChatItems []AChatItem `json:"chatItems"`
	}
	if err := c.request(ctx, cmd, RespChatItems, &r); err != nil {
		return nil, err
	}
	return r.ChatItems, nil
}

// Chats returns the most recent count chats, or all chats when count is not positive.
func (c *Client) Chats(ctx context.Context, count int) ([]Chat, error) {
	arg := "all"
	if count > 0 {
		arg = strconv.Itoa(count)
	}

	var r struct {
		Chats []Chat `json:"chats"`
	}
	if err := c.request(ctx, "/chats "+arg, RespChats, &r); err != nil {
		return nil, err
	}
	return r.Chats, nil
}

// React adds or removes an emoji reaction on a chat item. The chat is
// addressed by its numeric id.
func (c *Client) React(ctx context.Context, t chat.Type, chatID, itemID int64, emoji string, add bool) error {
	reaction, err := json.Marshal(struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	}{"emoji", emoji})
	if err != nil {
		return fmt.Errorf("encode reaction: %w", err)
	}
	cmd := fmt.Sprintf("/_reaction %s %d %s %s", chat.Ref(t, strconv.FormatInt(chatID, 10)), itemID, onOff(add), reaction)
	return c.request(ctx, cmd, RespChatItemReaction, nil)
}

func allowed(prefs map[string]Preference) map[string]bool {
	out := make(map[string]bool, len(prefs))
	for k, v := range prefs {
		out[k] = v.Allow == "yes"
	}
	return out
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
