package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookrook/bookrook-backend/internal"
	"github.com/bookrook/bookrook-backend/internal/provider"
	"github.com/bookrook/bookrook-backend/internal/session"
	"github.com/bookrook/bookrook-backend/internal/store"
)

// fakeService scripts the remote boundary for driver tests.
type fakeService struct {
	mu sync.Mutex

	threadsCreated int
	added          []addedMessage
	runMessages    []internal.AssistantMessage
	runErr         error
	neverTerminal  bool
	filenames      map[string]string

	kbErr       error
	populateErr error
}

type addedMessage struct {
	threadID, content, fileID string
}

func (f *fakeService) Model() string { return "fake-model" }

func (f *fakeService) CreateKnowledgeBase(_ context.Context, name string) (internal.KnowledgeBase, error) {
	if f.kbErr != nil {
		return internal.KnowledgeBase{}, f.kbErr
	}
	return internal.KnowledgeBase{ID: "kb-1", Name: name}, nil
}

func (f *fakeService) PopulateKnowledgeBase(context.Context, string, []string) error {
	return f.populateErr
}

func (f *fakeService) CreateAssistant(context.Context, string) (internal.Assistant, error) {
	return internal.Assistant{ID: "asst-1"}, nil
}

func (f *fakeService) RegisterFile(_ context.Context, path string) (internal.FileHandle, error) {
	return internal.FileHandle{ID: "file-1", Filename: path}, nil
}

func (f *fakeService) CreateThread(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadsCreated++
	return "thread-1", nil
}

func (f *fakeService) AddMessage(_ context.Context, threadID, content, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, addedMessage{threadID, content, fileID})
	return nil
}

func (f *fakeService) RunAndPoll(ctx context.Context, _, _ string) ([]internal.AssistantMessage, error) {
	if f.neverTerminal {
		// The remote run never reaches a terminal state; only context
		// cancellation ends the wait.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.runMessages, nil
}

func (f *fakeService) ResolveFile(_ context.Context, fileID string) (string, error) {
	if name, ok := f.filenames[fileID]; ok {
		return name, nil
	}
	return "", errors.New("unknown file")
}

func newTestDriver(t *testing.T, svc provider.AssistantService, timeout time.Duration) (*Driver, *store.FileStore) {
	t.Helper()
	files, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewDriver(svc, files, zap.NewNop(), timeout), files
}

func TestDriver_SendRewritesCitations(t *testing.T) {
	svc := &fakeService{
		runMessages: []internal.AssistantMessage{{
			Role: internal.RoleAssistant,
			Text: "Good classical reply. [cite]",
			Annotations: []internal.Annotation{{
				Span:         "[cite]",
				FileCitation: &internal.FileCitation{FileID: "f-book"},
			}},
		}},
		filenames: map[string]string{"f-book": "book.pdf"},
	}
	d, _ := newTestDriver(t, svc, time.Second)
	sess := session.New()
	sess.Assistant = internal.Assistant{ID: "asst-1"}

	text, citations, err := d.Send(context.Background(), sess, "1. e4 e5")
	require.NoError(t, err)

	assert.Equal(t, "Good classical reply. [0]", text)
	assert.Equal(t, []string{"[0] book.pdf"}, citations)
}

func TestDriver_SendReusesThreadAcrossTurns(t *testing.T) {
	svc := &fakeService{
		runMessages: []internal.AssistantMessage{{Role: internal.RoleAssistant, Text: "ok"}},
	}
	d, _ := newTestDriver(t, svc, time.Second)
	sess := session.New()
	sess.File = internal.FileHandle{ID: "file-1", Filename: "book.pdf"}

	_, _, err := d.Send(context.Background(), sess, "first")
	require.NoError(t, err)
	_, _, err = d.Send(context.Background(), sess, "second")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.threadsCreated)
	require.Len(t, svc.added, 2)
	assert.Equal(t, svc.added[0].threadID, svc.added[1].threadID)
	assert.Equal(t, "file-1", svc.added[0].fileID)
	assert.Equal(t, "second", svc.added[1].content)
}

func TestDriver_SendBlocksUntilDeadlineOnNonTerminalRun(t *testing.T) {
	svc := &fakeService{neverTerminal: true}
	d, _ := newTestDriver(t, svc, 60*time.Millisecond)
	sess := session.New()

	start := time.Now()
	_, _, err := d.Send(context.Background(), sess, "hello")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// No spurious early return: the turn stayed blocked until the
	// injected deadline expired.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestDriver_SendSurfacesRunFailure(t *testing.T) {
	runErr := &provider.RunFailedError{Status: "failed"}
	svc := &fakeService{runErr: runErr}
	d, _ := newTestDriver(t, svc, time.Second)
	sess := session.New()

	_, _, err := d.Send(context.Background(), sess, "hello")

	var rfe *provider.RunFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "failed", rfe.Status)
}

func TestDriver_RegisterUpload(t *testing.T) {
	svc := &fakeService{}
	d, files := newTestDriver(t, svc, time.Second)
	sess := session.New()

	_, err := d.RegisterUpload(context.Background(), sess, "missing.pdf")
	assert.ErrorContains(t, err, "no stored file")

	_, _, err = files.Save("book.pdf", []byte("pgn"))
	require.NoError(t, err)

	handle, err := d.RegisterUpload(context.Background(), sess, "book.pdf")
	require.NoError(t, err)
	assert.Equal(t, "file-1", handle.ID)
	assert.Equal(t, handle, sess.File)
}

func TestDriver_BootstrapFailFastOnMissingSeed(t *testing.T) {
	svc := &fakeService{}
	d, _ := newTestDriver(t, svc, time.Second)
	sess := session.New()

	err := d.Bootstrap(context.Background(), sess, []string{"does-not-exist.pdf"})
	assert.ErrorContains(t, err, "seed file")
	// Fail-fast: no remote calls were made.
	assert.Equal(t, 0, svc.threadsCreated)
	assert.Empty(t, sess.KnowledgeBase.ID)
}

func TestDriver_BootstrapChain(t *testing.T) {
	svc := &fakeService{}
	d, files := newTestDriver(t, svc, time.Second)
	sess := session.New()

	stored, _, err := files.Save("sample_chess_1.pdf", []byte("seed"))
	require.NoError(t, err)

	require.NoError(t, d.Bootstrap(context.Background(), sess, []string{stored.Path}))
	assert.Equal(t, "kb-1", sess.KnowledgeBase.ID)
	assert.Equal(t, "asst-1", sess.Assistant.ID)
}

func TestDriver_BootstrapPopulateFailureAborts(t *testing.T) {
	svc := &fakeService{populateErr: errors.New("indexing failed")}
	d, files := newTestDriver(t, svc, time.Second)
	sess := session.New()

	stored, _, err := files.Save("sample_chess_1.pdf", []byte("seed"))
	require.NoError(t, err)

	err = d.Bootstrap(context.Background(), sess, []string{stored.Path})
	assert.ErrorContains(t, err, "indexing failed")
	assert.Empty(t, sess.Assistant.ID)
}
