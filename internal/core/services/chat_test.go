package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func TestChatService_UploadThenAsk(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	p, err := a.projects.Create(ctx, "Board", "", "")
	require.NoError(t, err)
	doc, err := a.documents.Upload(ctx, p.ID, "minutes.txt", []byte("Meeting with John Smith on March 12 in Geneva."))
	require.NoError(t, err)
	done, err := a.documents.Wait(waitCtx(t), doc.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, done.Status)

	kps, err := a.keyPoints.List(ctx, p.ID, domain.KeyPointFilter{})
	require.NoError(t, err)
	assert.NotNil(t, findKeyPoint(kps, domain.KeyPointPerson, "John Smith"))
	assert.NotNil(t, findKeyPoint(kps, domain.KeyPointDate, "March 12"))
	assert.NotNil(t, findKeyPoint(kps, domain.KeyPointLocation, "Geneva"))

	reply, err := a.chat.Ask(ctx, p.ID, "Who did we meet?")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, reply.Role)
	assert.Equal(t, "It was John Smith [1].", reply.Content)
	require.Len(t, reply.Sources, 1)
	assert.Equal(t, doc.ID, reply.Sources[0].DocumentID)
	assert.Equal(t, "minutes.txt", reply.Sources[0].DocumentName)

	history, err := a.chat.History(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "Who did we meet?", history[0].Content)
	assert.True(t, history[1].CreatedAt.After(history[0].CreatedAt))

	welcome, err := a.chat.Welcome(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, WelcomeID, welcome.ID)
	assert.Contains(t, welcome.Content, "1 document")
	assert.Contains(t, welcome.Content, "key points")
}

func TestChatService_SendsPreviousTurns(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	p, err := a.projects.Create(ctx, "Board", "", "")
	require.NoError(t, err)

	_, err = a.chat.Ask(ctx, p.ID, "First question")
	require.NoError(t, err)
	_, err = a.chat.Ask(ctx, p.ID, "Second question")
	require.NoError(t, err)

	history, err := a.chat.History(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestChatService_ApologyOnFailure(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	p, err := a.projects.Create(ctx, "Board", "", "")
	require.NoError(t, err)
	require.NoError(t, a.index.Upsert(ctx, p.ID, "d1", []domain.ChunkInput{{Ordinal: 0, Content: "Budget approved."}}))
	a.llm.failures = -1
	a.llm.err = errors.New("invalid api key")

	reply, err := a.chat.Ask(ctx, p.ID, "What was approved?")
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, reply.Content)
	assert.Empty(t, reply.Sources)

	history, _ := a.chat.History(ctx, p.ID, 0)
	require.Len(t, history, 2)
	assert.Equal(t, ApologyMessage, history[1].Content)
}

func TestChatService_ApologyWhenStoreFails(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	p, err := a.projects.Create(ctx, "Board", "", "")
	require.NoError(t, err)
	a.store.appendErr = errors.New("disk full")

	reply, err := a.chat.Ask(ctx, p.ID, "Hello?")
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, reply.Content)
}

func TestChatService_Errors(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	p, err := a.projects.Create(ctx, "Board", "", "")
	require.NoError(t, err)

	_, err = a.chat.Ask(ctx, p.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = a.chat.Ask(ctx, "missing", "Hello?")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = a.chat.Welcome(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatService_WelcomeEmptyProjectAndClear(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	p, err := a.projects.Create(ctx, "Board", "", "")
	require.NoError(t, err)

	welcome, err := a.chat.Welcome(ctx, p.ID)
	require.NoError(t, err)
	assert.Contains(t, welcome.Content, "Upload documents")

	_, err = a.chat.Ask(ctx, p.ID, "Hello?")
	require.NoError(t, err)
	require.NoError(t, a.chat.Clear(ctx, p.ID))

	history, err := a.chat.History(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}
