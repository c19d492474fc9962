package synphora

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestGenerateMessageID(t *testing.T) {
	id := GenerateMessageID()
	assert.True(t, strings.HasPrefix(id, "msg-"))
}

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "be brief"}, SystemMessage("be brief"))
	assert.Equal(t, Message{Role: RoleUser, Content: "hi"}, UserMessage("hi"))
}
