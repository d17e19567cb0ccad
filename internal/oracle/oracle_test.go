// File: internal/oracle/oracle_test.go
package oracle

import (
	"context"
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/faults"
)

// -- ExtractDecision --

func TestExtractDecisionPlainJSON(t *testing.T) {
	d, ok := ExtractDecision(`{"tool":"click","x":50,"y":950,"memory":["Start button exists."]}`)
	require.True(t, ok)
	assert.Equal(t, "click", d.Tool)
	assert.Equal(t, 50.0, d.X.Value)
	assert.True(t, d.X.Set)
	assert.Equal(t, []string{"Start button exists."}, []string(d.Memory))
}

func TestExtractDecisionFencedBlock(t *testing.T) {
	raw := "Sure, here is the plan:\n```json\n{\"tool\":\"analyze\",\"reasoning\":\"desktop is idle\"}\n```"
	d, ok := ExtractDecision(raw)
	require.True(t, ok)
	assert.Equal(t, "analyze", d.Tool)
	assert.Equal(t, "desktop is idle", d.Reasoning)
}

func TestExtractDecisionConversationalFraming(t *testing.T) {
	raw := `I think we should click. {"tool":"move","x":[10],"y":"20"} Hope that helps!`
	d, ok := ExtractDecision(raw)
	require.True(t, ok)
	assert.Equal(t, "move", d.Tool)
	assert.Equal(t, 10.0, d.X.Value, "one-element list collapses to its first value")
	assert.Equal(t, 20.0, d.Y.Value, "numeric strings parse")
}

func TestExtractDecisionGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here", "{broken", "{]"} {
		_, ok := ExtractDecision(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}

func TestFlexFloatUnsetShapes(t *testing.T) {
	var d Decision
	require.NoError(t, stdjson.Unmarshal([]byte(`{"tool":"click","x":null,"y":"","dx":{"v":1}}`), &d))
	assert.False(t, d.X.Set)
	assert.False(t, d.Y.Set)
	assert.False(t, d.DX.Set)
	assert.Equal(t, 7.0, d.DX.Or(7))
}

func TestFlexLinesSingleString(t *testing.T) {
	var d Decision
	require.NoError(t, stdjson.Unmarshal([]byte(`{"memory":" one line "}`), &d))
	assert.Equal(t, "one line", d.Memory.Story())
}

// -- Client --

func chatReply(content string) string {
	reply := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
	b, _ := stdjson.Marshal(reply)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.Timeout = 2 * time.Second
	return NewClient(cfg, zap.NewNop()), srv
}

func TestDecideSendsImageAndGoal(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, stdjson.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(chatReply(`{"tool":"done"}`)))
	})

	out, err := client.Decide(context.Background(), []byte{1, 2, 3}, "open paint")
	require.NoError(t, err)
	assert.Contains(t, out, `"tool"`)

	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	parts := user["content"].([]any)
	textPart := parts[0].(map[string]any)
	assert.Contains(t, textPart["text"], "GOAL: open paint")
	imgPart := parts[1].(map[string]any)
	url := imgPart["image_url"].(map[string]any)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestDecideOmitsGoalWhenEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, stdjson.NewDecoder(r.Body).Decode(&req))
		user := req["messages"].([]any)[1].(map[string]any)
		text := user["content"].([]any)[0].(map[string]any)["text"].(string)
		assert.NotContains(t, text, "GOAL")
		w.Write([]byte(chatReply("ok")))
	})

	_, err := client.Decide(context.Background(), []byte{0xFF}, "")
	require.NoError(t, err)
}

func TestDecideTransportFailures(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusInternalServerError)
		})
		_, err := client.Decide(context.Background(), nil, "")
		require.Error(t, err)
		assert.True(t, faults.Is(err, faults.ClassTransport))
	})

	t.Run("malformed envelope", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json at all"))
		})
		_, err := client.Decide(context.Background(), nil, "")
		assert.True(t, faults.Is(err, faults.ClassTransport))
	})

	t.Run("no choices", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		})
		_, err := client.Decide(context.Background(), nil, "")
		assert.True(t, faults.Is(err, faults.ClassTransport))
	})

	t.Run("connection refused", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.URL = "http://127.0.0.1:1/v1/chat/completions"
		cfg.Timeout = time.Second
		client := NewClient(cfg, zap.NewNop())
		_, err := client.Decide(context.Background(), nil, "")
		assert.True(t, faults.Is(err, faults.ClassTransport))
	})
}

func TestDecideContentParts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"{\"tool\":"},{"type":"text","text":"\"done\"}"}]}}]}`))
	})
	out, err := client.Decide(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, `{"tool":"done"}`, out)
}
