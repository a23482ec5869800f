package mq

import "context"

// MessageQueue carries purge jobs from the trash sweeper to the purge
// consumer. Receive long-polls; a nil message means the poll was empty.
type MessageQueue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

type Message struct {
	Id   string
	Body string
}
