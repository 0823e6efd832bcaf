package chat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileTranscripts persists chat history as one JSONL file per backend
// session under <base>/chats/.
type FileTranscripts struct {
	BaseDir string
}

func (t *FileTranscripts) chatDir() string {
	return filepath.Join(t.BaseDir, "chats")
}

func (t *FileTranscripts) chatPath(sessionID string) string {
	return filepath.Join(t.chatDir(), sessionID+".jsonl")
}

func (t *FileTranscripts) Append(sessionID string, message Message) error {
	if err := os.MkdirAll(t.chatDir(), 0o755); err != nil {
		return fmt.Errorf("create chats directory: %w", err)
	}

	file, err := os.OpenFile(t.chatPath(sessionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	return json.NewEncoder(file).Encode(message)
}

func (t *FileTranscripts) Load(sessionID string) ([]Message, error) {
	file, err := os.Open(t.chatPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	var messages []Message
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var message Message
		if err := json.Unmarshal(scanner.Bytes(), &message); err != nil {
			return nil, fmt.Errorf("parse transcript line: %w", err)
		}
		messages = append(messages, message)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	return messages, nil
}
