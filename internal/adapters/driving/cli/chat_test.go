package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/services"
)

func TestChatCmd_Conversation(t *testing.T) {
	ts := setupTestServices(t)

	out, err := runCommand(t, "hi\n\nWhen do I clock in?\nbye\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Hello! I'm the Handbook Bot")
	assert.Contains(t, out, "By 9am.")
	assert.Contains(t, out, "Thank you for using the Handbook Bot")
	assert.Contains(t, out, "Chat ended. Type /restart to start over.")
	assert.Len(t, ts.llm.prompts, 1)
	assert.NotContains(t, out, "> ", "no prompt when stdin is not a terminal")
}

func TestChatCmd_EndedUntilRestart(t *testing.T) {
	ts := setupTestServices(t)

	input := strings.Join([]string{
		"bye",
		"When do I clock in?",
		"/restart",
		"When do I clock in?",
	}, "\n")

	out, err := runCommand(t, input, "chat")
	require.NoError(t, err)

	assert.Contains(t, out, services.EndedMessage)
	assert.Contains(t, out, "Chat cleared.")
	assert.Equal(t, 1, strings.Count(out, "By 9am."))
	assert.Len(t, ts.llm.prompts, 1)
}

func TestChatCmd_RetrievalFailure(t *testing.T) {
	ts := setupTestServices(t)
	ts.retriever.err = assert.AnError

	out, err := runCommand(t, "What is the leave policy?\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, services.ApologyMessage)
	assert.Empty(t, ts.llm.prompts)
}

func TestChatCmd_Sources(t *testing.T) {
	setupTestServices(t)

	out, err := runCommand(t, "hi\nWhen do I clock in?\n", "chat", "--sources")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "Sources:"))
}
