package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/venrik/skydeck/internal/api"
	"github.com/venrik/skydeck/internal/core"
)

type MessageType string

const (
	MessageUser  MessageType = "user"
	MessageBot   MessageType = "bot"
	MessageError MessageType = "error"
)

type Message struct {
	ID        core.MessageID `json:"id"`
	Type      MessageType    `json:"type"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"ts"`
}

// Messenger is the slice of the backend client the assistant needs.
type Messenger interface {
	CreateChatSession(ctx context.Context) (string, error)
	UploadChatDocument(ctx context.Context, doc api.ChatDocument) error
	SendChatMessage(ctx context.Context, sessionID, message string) (string, error)
}

// Assistant is an explicit handle for the document chat widget: it owns at
// most one backend session and one current document. It is passed through
// the composition root rather than stashed in any global.
type Assistant struct {
	api         Messenger
	transcripts *FileTranscripts

	mu        sync.Mutex
	sessionID string
	document  string
	messages  []Message
}

func NewAssistant(messenger Messenger, transcripts *FileTranscripts) *Assistant {
	return &Assistant{api: messenger, transcripts: transcripts}
}

func (a *Assistant) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionID
}

// Document returns the name of the currently attached document, if any.
func (a *Assistant) Document() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.document, a.document != ""
}

func (a *Assistant) Messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message{}, a.messages...)
}

// AttachDocument starts a fresh backend session around a file and discards
// the prior message history. Attaching is the only way a session begins.
func (a *Assistant) AttachDocument(ctx context.Context, file core.FileEntry, provider core.Provider) error {
	sessionID, err := a.api.CreateChatSession(ctx)
	if err != nil {
		return fmt.Errorf("attach document: %w", err)
	}

	doc := api.ChatDocument{
		FileID:    file.DocumentID(provider),
		FileName:  file.Name,
		Source:    provider.Source(),
		SessionID: sessionID,
	}

	if err := a.api.UploadChatDocument(ctx, doc); err != nil {
		return fmt.Errorf("attach document: %w", err)
	}

	a.mu.Lock()
	a.sessionID = sessionID
	a.document = file.Name
	a.messages = nil
	a.mu.Unlock()

	return nil
}

// Send posts one user message and appends the assistant's reply. On failure
// an error-typed message is appended so the transcript shows the gap.
func (a *Assistant) Send(ctx context.Context, text string) error {
	a.mu.Lock()
	sessionID := a.sessionID
	a.mu.Unlock()

	if sessionID == "" {
		return fmt.Errorf("send: no document attached")
	}

	a.append(sessionID, Message{
		ID:        core.NewMessageID(),
		Type:      MessageUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	})

	reply, err := a.api.SendChatMessage(ctx, sessionID, text)
	if err != nil {
		a.append(sessionID, Message{
			ID:        core.NewMessageID(),
			Type:      MessageError,
			Content:   "Sorry, I encountered an error. Please try again.",
			Timestamp: time.Now().UTC(),
		})
		return fmt.Errorf("send: %w", err)
	}

	a.append(sessionID, Message{
		ID:        core.NewMessageID(),
		Type:      MessageBot,
		Content:   reply,
		Timestamp: time.Now().UTC(),
	})

	return nil
}

func (a *Assistant) append(sessionID string, message Message) {
	a.mu.Lock()
	a.messages = append(a.messages, message)
	a.mu.Unlock()

	if a.transcripts == nil {
		return
	}

	if err := a.transcripts.Append(sessionID, message); err != nil {
		slog.Warn("transcript write failed", "session", sessionID, "error", err)
	}
}
