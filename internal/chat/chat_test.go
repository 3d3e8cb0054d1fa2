package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	ct, ok := ParseType("group")
	assert.True(t, ok)
	assert.Equal(t, Group, ct)

	ct, ok = ParseType("direct")
	assert.True(t, ok)
	assert.Equal(t, Direct, ct)

	ct, ok = ParseType("contactRequest")
	assert.True(t, ok)
	assert.Equal(t, ContactRequest, ct)

	_, ok = ParseType("local")
	assert.False(t, ok)
}

func TestRef(t *testing.T) {
	assert.Equal(t, "#devs", Ref(Group, "devs"))
	assert.Equal(t, "@alice", Ref(Direct, "alice"))
	assert.Equal(t, "<@bob", Ref(ContactRequest, "bob"))
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		typ  Type
		name string
	}{
		{"#devs", Group, "devs"},
		{"@alice", Direct, "alice"},
		{"<@bob", ContactRequest, "bob"},
	}
	for _, tt := range tests {
		typ, name, err := ParseRef(tt.in)
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.typ, typ, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}

	for _, bad := range []string{"", "devs", "#", "<@"} {
		_, _, err := ParseRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestMessage_ChatRef(t *testing.T) {
	m := Message{ChatType: Group, Sender: "devs", Group: "devs"}
	assert.Equal(t, "#devs", m.ChatRef())
	assert.True(t, m.InGroup())
}

func TestRole_Satisfies(t *testing.T) {
	assert.True(t, RoleOwner.Satisfies(RoleAdmin))
	assert.True(t, RoleAdmin.Satisfies(RoleAdmin))
	assert.True(t, RoleMember.Satisfies(RoleMember))
	assert.False(t, RoleMember.Satisfies(RoleAdmin))
	assert.False(t, RoleAdmin.Satisfies(RoleOwner))
}

func TestRole_UnrankedDenied(t *testing.T) {
	assert.False(t, RoleObserver.Satisfies(RoleMember))
	assert.False(t, RoleAuthor.Satisfies(RoleMember))
	assert.False(t, Role("").Satisfies(RoleMember))
	assert.True(t, RoleObserver.Satisfies(""))
}
