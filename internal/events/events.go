// Package events carries new-record notifications from the watcher to its
// consumers over two typed topics. Handlers are invoked sequentially in
// registration order and each is awaited before the next; a handler error
// stops delivery of that event and is returned to the emitter, which decides
// whether anything further is delivered.
package events

import (
	"context"
	"sync"

	"lmswatch/internal/types"
)

// ThreadHandler receives a newly observed forum thread.
type ThreadHandler func(ctx context.Context, forum types.Forum, thread types.Thread) error

// MessageHandler receives a newly observed conversation message.
type MessageHandler func(ctx context.Context, conv types.Conversation, msg types.Message) error

// Bus is the outbound event channel.
type Bus struct {
	mu       sync.Mutex
	threads  []ThreadHandler
	messages []MessageHandler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// OnThread subscribes to new-thread events.
func (b *Bus) OnThread(h ThreadHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.threads = append(b.threads, h)
}

// OnMessage subscribes to new-conversation-message events.
func (b *Bus) OnMessage(h MessageHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, h)
}

// EmitThread delivers a new thread to every subscriber in turn.
func (b *Bus) EmitThread(ctx context.Context, forum types.Forum, thread types.Thread) error {
	b.mu.Lock()
	handlers := make([]ThreadHandler, len(b.threads))
	copy(handlers, b.threads)
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, forum, thread); err != nil {
			return err
		}
	}
	return nil
}

// EmitMessage delivers a new message to every subscriber in turn.
func (b *Bus) EmitMessage(ctx context.Context, conv types.Conversation, msg types.Message) error {
	b.mu.Lock()
	handlers := make([]MessageHandler, len(b.messages))
	copy(handlers, b.messages)
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(ctx, conv, msg); err != nil {
			return err
		}
	}
	return nil
}
