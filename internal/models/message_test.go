package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	// At the limit: returned untouched, no marker
	exact := strings.Repeat("a", PreviewLimit)
	assert.Equal(t, exact, Preview(exact))

	// One over the limit: cut and marked
	over := strings.Repeat("a", PreviewLimit+1)
	assert.Equal(t, exact+"...", Preview(over))

	// Short content is untouched
	assert.Equal(t, "hi", Preview("hi"))

	// Boundary counts characters, not bytes
	wide := strings.Repeat("é", PreviewLimit)
	assert.Equal(t, wide, Preview(wide))
	assert.Equal(t, wide+"...", Preview(wide+"é"))
}

func TestIsThreadRoot(t *testing.T) {
	root := &Message{}
	assert.True(t, root.IsThreadRoot())

	parentID := root.ID
	reply := &Message{ParentID: &parentID}
	assert.False(t, reply.IsThreadRoot())
}

func TestEditSummary(t *testing.T) {
	expanded := &MessageHistory{OldContent: "short", NewContent: "much longer text"}
	assert.Equal(t, "expanded by 11 characters", expanded.EditSummary())

	shortened := &MessageHistory{OldContent: "much longer text", NewContent: "short"}
	assert.Equal(t, "shortened by 11 characters", shortened.EditSummary())

	same := &MessageHistory{OldContent: "abcde", NewContent: "edcba"}
	assert.Equal(t, "same length", same.EditSummary())

	// Character counts, not byte counts
	unicode := &MessageHistory{OldContent: "ab", NewContent: "éé"}
	assert.Equal(t, "same length", unicode.EditSummary())
}

func TestUserName(t *testing.T) {
	withDisplay := &User{Username: "alice", DisplayName: "Alice A."}
	assert.Equal(t, "Alice A.", withDisplay.Name())

	withoutDisplay := &User{Username: "alice"}
	assert.Equal(t, "alice", withoutDisplay.Name())
}
