package internal

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chat history. Citations is only populated on
// assistant messages and holds rendered footnotes like "[0] openings.pdf".
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Citations []string  `json:"citations,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistory struct {
	Messages []Message `json:"messages"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	Reply Message `json:"reply"`
	Model string  `json:"model"`
}

// --- Remote knowledge base ---

// KnowledgeBase identifies a remote vector index holding the indexed book
// material. Created once per session and never mutated afterwards.
type KnowledgeBase struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Assistant identifies the remote agent bound to a knowledge base.
type Assistant struct {
	ID string `json:"id"`
}

// FileHandle is a file registered with the remote service for use as a
// message attachment.
type FileHandle struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

// --- Assistant responses ---

// FileCitation points at the remote file an annotation cites.
type FileCitation struct {
	FileID string `json:"file_id"`
}

// Annotation is a marked span within a generated response. FileCitation is
// nil for annotation kinds that do not reference a source file. Start/End
// are byte offsets into the original response text when the service
// supplied them; End <= Start means offsets are absent.
type Annotation struct {
	Span         string        `json:"span"`
	Start        int           `json:"start"`
	End          int           `json:"end"`
	FileCitation *FileCitation `json:"file_citation,omitempty"`
}

// AssistantMessage is a raw response message before citation rewriting.
type AssistantMessage struct {
	Role        Role
	Text        string
	Annotations []Annotation
}

// --- Upload surface ---

type UploadFileResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Existing bool   `json:"existing"`
}

type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type ListFilesResponse struct {
	Files []FileInfo `json:"files"`
}
