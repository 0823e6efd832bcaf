package core

import "github.com/google/uuid"

type RequestID string

type MessageID string

func NewRequestID() RequestID {
	return RequestID("req_" + uuid.NewString())
}

func NewMessageID() MessageID {
	return MessageID("msg_" + uuid.NewString())
}
