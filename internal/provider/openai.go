package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bookrook/bookrook-backend/internal"
)

const (
	defaultModel = "gpt-4o-mini"

	// Interval handed to the SDK's poll helpers (upload-and-poll,
	// create-and-poll). The helpers block until a terminal state or until
	// ctx is cancelled.
	pollIntervalMs = 1000
)

const instructionsTemplate = `You are an expert chess master. Use your knowledge base to answer questions about chess.
Employ chess notations and memorization techniques when responding to user queries.
Also you can play a game of chess using chess notations.
Use files in the %s to respond to chess moves played by the User.`

// OpenAIService implements AssistantService on the OpenAI Assistants API:
// vector stores for the knowledge base, assistants with the file-search
// tool, and thread runs driven through the SDK's polling helpers.
type OpenAIService struct {
	client openai.Client
	model  string
}

func NewOpenAIService(apiKey, model string) *OpenAIService {
	if model == "" {
		model = defaultModel
	}
	return &OpenAIService{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (s *OpenAIService) Model() string { return s.model }

func (s *OpenAIService) CreateKnowledgeBase(ctx context.Context, name string) (internal.KnowledgeBase, error) {
	vs, err := s.client.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(name),
	})
	if err != nil {
		return internal.KnowledgeBase{}, &RemoteError{Op: "create vector store", Err: err}
	}
	return internal.KnowledgeBase{ID: vs.ID, Name: vs.Name}, nil
}

// PopulateKnowledgeBase uploads the seed files into the vector store and
// blocks until the whole batch is indexed. Any failed file fails the batch.
func (s *OpenAIService) PopulateKnowledgeBase(ctx context.Context, kbID string, paths []string) error {
	files := make([]openai.FileNewParams, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		files = append(files, openai.FileNewParams{
			File:    f,
			Purpose: openai.FilePurposeAssistants,
		})
	}

	batch, err := s.client.VectorStores.FileBatches.UploadAndPoll(ctx, kbID, files, nil, pollIntervalMs)
	if err != nil {
		return &RemoteError{Op: "populate vector store", Err: err}
	}
	if batch.Status != "completed" {
		return &RemoteError{
			Op:  "populate vector store",
			Err: fmt.Errorf("file batch ended %s (%d failed)", batch.Status, batch.FileCounts.Failed),
		}
	}
	return nil
}

func (s *OpenAIService) CreateAssistant(ctx context.Context, kbID string) (internal.Assistant, error) {
	assistant, err := s.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Name:         openai.String("Chess Master Assistant"),
		Instructions: openai.String(fmt.Sprintf(instructionsTemplate, kbID)),
		Model:        openai.ChatModel(s.model),
		Tools: []openai.AssistantToolUnionParam{
			{OfFileSearch: &openai.FileSearchToolParam{}},
		},
		ToolResources: openai.BetaAssistantNewParamsToolResources{
			FileSearch: openai.BetaAssistantNewParamsToolResourcesFileSearch{
				VectorStoreIDs: []string{kbID},
			},
		},
	})
	if err != nil {
		return internal.Assistant{}, &RemoteError{Op: "create assistant", Err: err}
	}
	return internal.Assistant{ID: assistant.ID}, nil
}

// RegisterFile re-reads the stored file from disk on every call and
// registers it for attachment use. A missing stored file surfaces as a
// RemoteError so the caller can warn the user instead of crashing.
func (s *OpenAIService) RegisterFile(ctx context.Context, path string) (internal.FileHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return internal.FileHandle{}, &RemoteError{Op: "register file", Err: err}
	}
	defer f.Close()

	obj, err := s.client.Files.New(ctx, openai.FileNewParams{
		File:    f,
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return internal.FileHandle{}, &RemoteError{Op: "register file", Err: err}
	}
	return internal.FileHandle{ID: obj.ID, Filename: obj.Filename}, nil
}

func (s *OpenAIService) CreateThread(ctx context.Context) (string, error) {
	thread, err := s.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", &RemoteError{Op: "create thread", Err: err}
	}
	return thread.ID, nil
}

// AddMessage appends a user message to the thread, attaching fileID (when
// non-empty) with the file-search tool bound.
func (s *OpenAIService) AddMessage(ctx context.Context, threadID, content, fileID string) error {
	params := openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(content),
		},
	}
	if fileID != "" {
		params.Attachments = []openai.BetaThreadMessageNewParamsAttachment{{
			FileID: openai.String(fileID),
			Tools: []openai.BetaThreadMessageNewParamsAttachmentToolUnion{
				{OfFileSearch: &openai.BetaThreadMessageNewParamsAttachmentToolFileSearch{}},
			},
		}}
	}
	if _, err := s.client.Beta.Threads.Messages.New(ctx, threadID, params); err != nil {
		return &RemoteError{Op: "add message", Err: err}
	}
	return nil
}

// RunAndPoll submits a run and blocks until it is terminal, then returns the
// messages generated during that run, most-recent-first as listed by the
// service. A terminal state other than completed yields RunFailedError.
func (s *OpenAIService) RunAndPoll(ctx context.Context, threadID, assistantID string) ([]internal.AssistantMessage, error) {
	run, err := s.client.Beta.Threads.Runs.NewAndPoll(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	}, pollIntervalMs)
	if err != nil {
		return nil, &RemoteError{Op: "run thread", Err: err}
	}
	if run.Status != openai.RunStatusCompleted {
		return nil, &RunFailedError{Status: string(run.Status)}
	}

	page, err := s.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		RunID: openai.String(run.ID),
	})
	if err != nil {
		return nil, &RemoteError{Op: "list messages", Err: err}
	}

	out := make([]internal.AssistantMessage, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, toAssistantMessage(m))
	}
	return out, nil
}

func (s *OpenAIService) ResolveFile(ctx context.Context, fileID string) (string, error) {
	obj, err := s.client.Files.Get(ctx, fileID)
	if err != nil {
		return "", &RemoteError{Op: "retrieve file", Err: err}
	}
	return obj.Filename, nil
}

// toAssistantMessage flattens the first text block of a thread message into
// the domain type, tagging file-citation annotations explicitly.
func toAssistantMessage(m openai.Message) internal.AssistantMessage {
	am := internal.AssistantMessage{Role: internal.Role(m.Role)}
	for _, c := range m.Content {
		if c.Type != "text" {
			continue
		}
		am.Text = c.Text.Value
		for _, a := range c.Text.Annotations {
			ann := internal.Annotation{
				Span:  a.Text,
				Start: int(a.StartIndex),
				End:   int(a.EndIndex),
			}
			if a.Type == "file_citation" {
				ann.FileCitation = &internal.FileCitation{FileID: a.FileCitation.FileID}
			}
			am.Annotations = append(am.Annotations, ann)
		}
		break
	}
	return am
}
