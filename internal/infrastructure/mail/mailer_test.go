package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-platform-api/pkg/logger"
)

func TestComposer_NewChapter(t *testing.T) {
	c := NewComposer("https://novels.example/")
	msg := c.NewChapter([]string{"a@x.io", "b@x.io"}, "The Lost Kingdom", "the-lost-kingdom-1", 4, "Homecoming")

	assert.Equal(t, "New chapter: The Lost Kingdom", msg.Subject)
	assert.Len(t, msg.To, 2)
	assert.Contains(t, msg.Body, "Chapter 4: Homecoming")
	assert.Contains(t, msg.Body, "https://novels.example/novel/the-lost-kingdom-1/4")
}

func TestLogMailer_Send(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "debug", "json")
	defer logger.Init("info", "json")

	m := NewLogMailer("no-reply@x.io", true)
	require.NoError(t, m.Send(context.Background(), NewComposer("http://localhost").Welcome("a@x.io", "alice")))
	assert.Contains(t, buf.String(), "mail sent")
	assert.Contains(t, buf.String(), "no-reply@x.io")

	buf.Reset()
	require.NoError(t, m.Send(context.Background(), &Message{Subject: "nobody"}))
	assert.Empty(t, buf.String())

	buf.Reset()
	require.NoError(t, NewLogMailer("", false).Send(context.Background(), &Message{To: []string{"a@x.io"}, Subject: "s"}))
	assert.Contains(t, buf.String(), "mail delivery disabled")
}
