package provider

import (
	"context"
	"fmt"

	"github.com/bookrook/bookrook-backend/internal"
)

// AssistantService is the remote-service boundary: a hosted AI-assistant
// platform offering vector indexes, assistants, threads and runs. All calls
// are blocking; the poll-based ones only return on a terminal state or when
// ctx is done. No call retries internally.
type AssistantService interface {
	Model() string

	// Startup provisioning, in dependency order.
	CreateKnowledgeBase(ctx context.Context, name string) (internal.KnowledgeBase, error)
	PopulateKnowledgeBase(ctx context.Context, kbID string, paths []string) error
	CreateAssistant(ctx context.Context, kbID string) (internal.Assistant, error)

	// Per-turn operations.
	RegisterFile(ctx context.Context, path string) (internal.FileHandle, error)
	CreateThread(ctx context.Context) (string, error)
	AddMessage(ctx context.Context, threadID, content, fileID string) error
	RunAndPoll(ctx context.Context, threadID, assistantID string) ([]internal.AssistantMessage, error)
	ResolveFile(ctx context.Context, fileID string) (string, error)
}

// RemoteError wraps a failed remote-service call with the operation that
// issued it.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *RemoteError) Unwrap() error { return e.Err }

// RunFailedError reports a run that reached a terminal state other than
// completed.
type RunFailedError struct {
	Status string
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("run ended in terminal state %q", e.Status)
}

// MockService is the offline fallback used when no API key is configured.
// It answers every turn with a canned reply and never produces citations.
type MockService struct{}

func (MockService) Model() string { return "mock-bookrook" }

func (MockService) CreateKnowledgeBase(_ context.Context, name string) (internal.KnowledgeBase, error) {
	return internal.KnowledgeBase{ID: "kb-mock", Name: name}, nil
}

func (MockService) PopulateKnowledgeBase(context.Context, string, []string) error { return nil }

func (MockService) CreateAssistant(context.Context, string) (internal.Assistant, error) {
	return internal.Assistant{ID: "asst-mock"}, nil
}

func (MockService) RegisterFile(_ context.Context, path string) (internal.FileHandle, error) {
	return internal.FileHandle{ID: "file-mock", Filename: path}, nil
}

func (MockService) CreateThread(context.Context) (string, error) { return "thread-mock", nil }

func (MockService) AddMessage(context.Context, string, string, string) error { return nil }

func (MockService) RunAndPoll(context.Context, string, string) ([]internal.AssistantMessage, error) {
	return []internal.AssistantMessage{{
		Role: internal.RoleAssistant,
		Text: "Understood. (mock) A fine move — develop your pieces and control the center.",
	}}, nil
}

func (MockService) ResolveFile(_ context.Context, fileID string) (string, error) {
	return fileID, nil
}
