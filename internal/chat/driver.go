// Package chat drives the upload/provision/query pipeline against the
// remote assistant service.
package chat

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/bookrook/bookrook-backend/internal"
	"github.com/bookrook/bookrook-backend/internal/citation"
	"github.com/bookrook/bookrook-backend/internal/provider"
	"github.com/bookrook/bookrook-backend/internal/session"
	"github.com/bookrook/bookrook-backend/internal/store"
)

// Driver orchestrates one session's remote interactions: startup
// provisioning and the per-turn thread/run cycle. It holds no session
// state itself; everything session-scoped lives on the Session.
type Driver struct {
	svc        provider.AssistantService
	files      *store.FileStore
	log        *zap.Logger
	runTimeout time.Duration
}

func NewDriver(svc provider.AssistantService, files *store.FileStore, log *zap.Logger, runTimeout time.Duration) *Driver {
	return &Driver{svc: svc, files: files, log: log, runTimeout: runTimeout}
}

// Bootstrap provisions the session's knowledge base and assistant, in a
// strict dependency chain: seed files are checked fail-fast on disk, the
// vector index is created, the seed files are uploaded and indexed
// (blocking until the batch is terminal), and finally the assistant is
// registered against the index. Any failure aborts startup.
func (d *Driver) Bootstrap(ctx context.Context, sess *session.Session, seedPaths []string) error {
	for _, p := range seedPaths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("seed file %s: %w", p, err)
		}
	}

	d.log.Info("creating knowledge base")
	kb, err := d.svc.CreateKnowledgeBase(ctx, "Chess Materials")
	if err != nil {
		return err
	}
	sess.KnowledgeBase = kb
	d.log.Info("knowledge base created", zap.String("id", kb.ID))

	d.log.Info("populating knowledge base", zap.Strings("seeds", seedPaths))
	if err := d.svc.PopulateKnowledgeBase(ctx, kb.ID, seedPaths); err != nil {
		return err
	}
	d.log.Info("knowledge base populated")

	d.log.Info("creating assistant")
	assistant, err := d.svc.CreateAssistant(ctx, kb.ID)
	if err != nil {
		return err
	}
	sess.Assistant = assistant
	d.log.Info("assistant created", zap.String("id", assistant.ID))
	return nil
}

// RegisterUpload registers a stored file with the remote service for
// attachment use and records the handle on the session. The file is
// re-read from disk on every call.
func (d *Driver) RegisterUpload(ctx context.Context, sess *session.Session, name string) (internal.FileHandle, error) {
	stored, ok := d.files.Lookup(name)
	if !ok {
		return internal.FileHandle{}, fmt.Errorf("no stored file named %s; upload it first", name)
	}
	handle, err := d.svc.RegisterFile(ctx, stored.Path)
	if err != nil {
		return internal.FileHandle{}, err
	}
	if handle.Filename == "" {
		handle.Filename = stored.Name
	}
	sess.File = handle
	return handle, nil
}

// Send runs one user turn: ensure the session thread exists, append the
// user message (with the session's file attachment, if any), run the
// assistant until terminal, and rewrite citations in the newest reply.
// The whole turn is bounded by the configured run timeout; a hung remote
// run fails the turn instead of stalling the session.
func (d *Driver) Send(ctx context.Context, sess *session.Session, content string) (string, []string, error) {
	if d.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.runTimeout)
		defer cancel()
	}

	if sess.ThreadID == "" {
		threadID, err := d.svc.CreateThread(ctx)
		if err != nil {
			return "", nil, err
		}
		sess.ThreadID = threadID
		d.log.Info("thread created", zap.String("thread", threadID))
	}

	if err := d.svc.AddMessage(ctx, sess.ThreadID, content, sess.File.ID); err != nil {
		return "", nil, err
	}

	messages, err := d.svc.RunAndPoll(ctx, sess.ThreadID, sess.Assistant.ID)
	if err != nil {
		return "", nil, err
	}
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("run produced no messages")
	}

	// Messages arrive most-recent-first; the head is the reply.
	reply := messages[0]
	text, citations := citation.Rewrite(reply.Text, reply.Annotations, func(fileID string) (string, error) {
		return d.svc.ResolveFile(ctx, fileID)
	})
	return text, citations, nil
}
