package mcpstudy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/model"
)

func newTestStudy(t *testing.T, mock *model.MockModel) *Study {
	t.Helper()

	// Point at a non-existent config so no MCP servers are contacted.
	configPath := filepath.Join(t.TempDir(), "mcp_server.json")

	study, err := New(context.Background(), func(o *Options) {
		o.ConfigPath = configPath
		o.Model = mock
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = study.Close() })
	return study
}

func TestStudyAsk(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.AddResponse("hello", "Hi there!")

	study := newTestStudy(t, mock)

	answer, err := study.Ask(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", answer)
}

func TestStudyMemoryToolsRegistered(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	study := newTestStudy(t, mock)

	tools := study.Tools()
	assert.Contains(t, tools, "remember")
	assert.Contains(t, tools, "recall_memory")
	assert.True(t, study.Agent().HasTool("remember"))
}

func TestStudyMemoryToolsDisabled(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	configPath := filepath.Join(t.TempDir(), "mcp_server.json")

	study, err := New(context.Background(), func(o *Options) {
		o.ConfigPath = configPath
		o.Model = mock
		o.EnableMemoryTools = false
	})
	require.NoError(t, err)
	defer study.Close()

	assert.Empty(t, study.Tools())
}

func TestStudyEventsCarryHistory(t *testing.T) {
	mock := model.NewMockModel("mock", "test")
	mock.AddResponse("first", "one")
	mock.AddResponse("second", "two")

	study := newTestStudy(t, mock)

	_, err := study.Ask(context.Background(), "s1", "first")
	require.NoError(t, err)
	_, err = study.Ask(context.Background(), "s1", "second")
	require.NoError(t, err)

	sess, err := study.Runner().GetSession("s1")
	require.NoError(t, err)
	history := sess.GetConversationHistory()
	require.Len(t, history, 4)
	assert.Equal(t, "two", history[3].Content.Text())
}

func TestStudyBadConfigFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mcp_server.json")
	require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0o600))

	_, err := New(context.Background(), func(o *Options) {
		o.ConfigPath = configPath
		o.Model = model.NewMockModel("mock", "test")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load mcp server config")
}
