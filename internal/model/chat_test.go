package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnJSONCarriesClientType(t *testing.T) {
	var turns []Turn
	require.NoError(t, json.Unmarshal([]byte(`[{"type":"user","content":"hi"},{"type":"ai","content":"hello"}]`), &turns))
	assert.Equal(t, []Turn{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, turns)

	b, err := json.Marshal(turns)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","type":"user","content":"hi"},{"role":"assistant","type":"ai","content":"hello"}]`, string(b))
}
