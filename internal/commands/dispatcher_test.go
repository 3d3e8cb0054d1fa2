package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayuer/simplex-bot-go/internal/chat"
	"github.com/dayuer/simplex-bot-go/internal/client"
	"github.com/dayuer/simplex-bot-go/internal/client/clienttest"
)

type harness struct {
	srv *clienttest.Server
	c   *client.Client
	reg *Registry
	d   *Dispatcher
	now time.Time
}

func newHarness(t *testing.T, cmds ...*Command) *harness {
	t.Helper()
	h := &harness{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	h.srv = clienttest.NewServer(t)
	h.srv.Handle("#quiet ", func(clienttest.Request) any { return nil })
	h.srv.Respond("/_reaction", clienttest.Resp(client.RespChatItemReaction, nil))
	h.srv.Respond("#", clienttest.Resp(client.RespNewChatItems, map[string]any{"chatItems": []any{}}))
	h.srv.Respond("@", clienttest.Resp(client.RespNewChatItems, map[string]any{"chatItems": []any{}}))

	c, err := client.Connect(context.Background(), client.Options{URL: h.srv.URL(), Timeout: 200 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect() })
	h.c = c

	h.reg = NewRegistry("!")
	for _, cmd := range cmds {
		require.NoError(t, h.reg.Register(cmd))
	}
	h.d = NewDispatcher(c, h.reg, Options{
		MaxBacklog: time.Minute,
		Now:        func() time.Time { return h.now },
	})
	return h
}

// sent returns the command text of everything the daemon received.
func (h *harness) sent() []string {
	var out []string
	for _, r := range h.srv.Drain() {
		out = append(out, r.Cmd)
	}
	return out
}

func counting(n *atomic.Int32) Handler {
	return func(context.Context, *client.Client, chat.Message, []string) error {
		n.Add(1)
		return nil
	}
}

func groupMsg(member string, role chat.Role, text string) chat.Message {
	return chat.Message{
		ChatType: chat.Group, Sender: "devs", SenderID: 7,
		Contact: member, ContactID: 11, ContactRole: role,
		Group: "devs", GroupID: 7,
		Text: text, ItemID: 101,
	}
}

const reaction = `/_reaction #7 101 on {"type":"emoji","emoji":"🚀"}`

func TestDispatch_Ignored(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "ping", Handler: counting(&calls)})

	for _, msg := range []chat.Message{
		groupMsg("", "", "!ping"),
		groupMsg("alice", chat.RoleMember, ""),
		groupMsg("alice", chat.RoleMember, "ping"),
		groupMsg("alice", chat.RoleMember, "hello !ping"),
	} {
		require.NoError(t, h.d.Dispatch(context.Background(), msg))
	}
	assert.Empty(t, h.sent())
	assert.Zero(t, calls.Load())
}

func TestDispatch_UnknownCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.d.Dispatch(context.Background(), groupMsg("alice", chat.RoleMember, "!nope")))
	assert.Equal(t, []string{reaction, "#devs @alice: Unknown command"}, h.sent())
}

func TestDispatch_PermissionDenied(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "kick", Args: 1, MinRole: chat.RoleAdmin, Handler: counting(&calls)})

	require.NoError(t, h.d.Dispatch(context.Background(), groupMsg("alice", chat.RoleMember, "!kick bob")))
	assert.Equal(t, []string{
		reaction,
		"#devs @alice: You do not have permission to run this command (required: admin)",
	}, h.sent())
	assert.Zero(t, calls.Load())

	require.NoError(t, h.d.Dispatch(context.Background(), groupMsg("alice", chat.RoleOwner, "!kick bob")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatch_UnrankedRoleDenied(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "ping", Handler: counting(&calls)})

	for _, role := range []chat.Role{chat.RoleObserver, chat.RoleAuthor, ""} {
		require.NoError(t, h.d.Dispatch(context.Background(), groupMsg("alice", role, "!ping")))
	}
	assert.Zero(t, calls.Load())
}

func TestDispatch_DirectMessageSkipsRoleCheck(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "kick", Args: 1, MinRole: chat.RoleOwner, Handler: counting(&calls)})

	msg := chat.Message{
		ChatType: chat.Direct, Sender: "alice", SenderID: 3,
		Contact: "alice", ContactID: 3,
		Text: "!kick bob", ItemID: 5,
	}
	require.NoError(t, h.d.Dispatch(context.Background(), msg))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{`/_reaction @3 5 on {"type":"emoji","emoji":"🚀"}`}, h.sent())
}

func TestDispatch_ArgumentCount(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "kick", Args: 1, Handler: counting(&calls)})

	for _, text := range []string{"!kick", "!kick bob carol"} {
		require.NoError(t, h.d.Dispatch(context.Background(), groupMsg("alice", chat.RoleMember, text)))
		assert.Equal(t, []string{reaction, "#devs @alice: Incorrect number of arguments (required: 1)"}, h.sent())
	}
	assert.Zero(t, calls.Load())

	require.NoError(t, h.d.Dispatch(context.Background(), groupMsg("alice", chat.RoleMember, "!kick   bob ")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatch_SenderCooldown(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "showcase", SenderCooldown: 30 * time.Second, Handler: counting(&calls)})
	ctx := context.Background()

	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleMember, "!showcase")))
	assert.Equal(t, []string{reaction}, h.sent())

	h.now = h.now.Add(10 * time.Second)
	require.NoError(t, h.d.Dispatch(ctx, groupMsg("bob", chat.RoleMember, "!showcase")))
	assert.Equal(t, []string{reaction, "#devs @bob: On cooldown, try again in 20.0 seconds"}, h.sent())
	assert.Equal(t, int32(1), calls.Load())

	h.now = h.now.Add(21 * time.Second)
	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleMember, "!showcase")))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDispatch_IssuerCooldownReportsLongestWait(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{
		Name:           "roll",
		SenderCooldown: 5 * time.Second,
		IssuerCooldown: time.Minute,
		Handler:        counting(&calls),
	})
	ctx := context.Background()

	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleMember, "!roll")))

	h.now = h.now.Add(6 * time.Second)
	require.NoError(t, h.d.Dispatch(ctx, groupMsg("bob", chat.RoleMember, "!roll")))
	assert.Equal(t, int32(2), calls.Load())
	h.sent()

	h.now = h.now.Add(2 * time.Second)
	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleMember, "!roll")))
	assert.Equal(t, []string{reaction, "#devs @alice: On cooldown, try again in 52.0 seconds"}, h.sent())
	assert.Equal(t, int32(2), calls.Load())
}

func TestDispatch_RejectedAttemptDoesNotStartCooldown(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "kick", Args: 1, MinRole: chat.RoleAdmin, SenderCooldown: time.Minute, Handler: counting(&calls)})
	ctx := context.Background()

	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleMember, "!kick bob")))
	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleAdmin, "!kick")))
	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleAdmin, "!kick bob")))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatch_HandlerFailure(t *testing.T) {
	h := newHarness(t,
		&Command{Name: "fail", Handler: func(context.Context, *client.Client, chat.Message, []string) error {
			return errors.New("boom")
		}},
		&Command{Name: "panic", Handler: func(context.Context, *client.Client, chat.Message, []string) error {
			panic("boom")
		}},
	)
	ctx := context.Background()

	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleMember, "!fail")))
	assert.Equal(t, []string{reaction, "#devs @alice: Failed to run command 'fail'"}, h.sent())

	require.NoError(t, h.d.Dispatch(ctx, groupMsg("alice", chat.RoleMember, "!panic")))
	assert.Equal(t, []string{reaction, "#devs @alice: Failed to run command 'panic'"}, h.sent())
}

func TestDispatch_HandlerReceivesArgs(t *testing.T) {
	var got []string
	var gotMsg chat.Message
	h := newHarness(t, &Command{Name: "echo", Args: 2, Handler: func(_ context.Context, _ *client.Client, msg chat.Message, args []string) error {
		got, gotMsg = args, msg
		return nil
	}})

	msg := groupMsg("alice", chat.RoleMember, "!echo a b")
	require.NoError(t, h.d.Dispatch(context.Background(), msg))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, msg, gotMsg)
}

func TestDispatch_TransportFailureIsFatal(t *testing.T) {
	h := newHarness(t, &Command{Name: "ping", Handler: counting(new(atomic.Int32))})
	require.NoError(t, h.c.Disconnect())

	err := h.d.Dispatch(context.Background(), groupMsg("alice", chat.RoleMember, "!ping"))
	require.Error(t, err)
	assert.False(t, client.IsRecoverable(err))
}

func TestRun(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, &Command{Name: "ping", Handler: counting(&calls)})
	ts := time.Now()
	h.d.opts.Now = time.Now

	h.srv.Push(clienttest.NewChatItems(
		clienttest.GroupItem(9, "quiet", 11, "alice", "member", "!nope", 1, ts),
		clienttest.GroupItem(7, "devs", 12, "bob", "member", "!ping", 2, ts),
		clienttest.GroupEvent(7, "devs", "alice joined", 3, ts),
	))

	done := make(chan error, 1)
	go func() { done <- h.d.Run(context.Background()) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	h.srv.Drop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the stream closed")
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.d.Run(ctx), context.Canceled)
}
