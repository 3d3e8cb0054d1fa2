package bus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_IsResponse(t *testing.T) {
	ev := Event{CorrID: "7", Type: "versionInfo"}
	assert.True(t, ev.IsResponse())

	ev = Event{Type: "newChatItems"}
	assert.False(t, ev.IsResponse())
}

func TestEvent_Decode(t *testing.T) {
	ev := Event{
		Type:    "versionInfo",
		Payload: json.RawMessage(`{"type":"versionInfo","versionInfo":{"version":"5.4.2"}}`),
	}

	var resp struct {
		VersionInfo struct {
			Version string `json:"version"`
		} `json:"versionInfo"`
	}
	require.NoError(t, ev.Decode(&resp))
	assert.Equal(t, "5.4.2", resp.VersionInfo.Version)
}

func TestEvent_DecodeInvalid(t *testing.T) {
	ev := Event{Payload: json.RawMessage(`{not json`)}
	var v map[string]any
	assert.Error(t, ev.Decode(&v))
}
