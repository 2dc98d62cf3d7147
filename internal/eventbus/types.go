package eventbus

import "time"

// Topic represents an event topic.
type Topic string

const (
	TopicMessageReceived   Topic = "message_received"
	TopicStreamStarted     Topic = "stream_started"
	TopicStreamCompleted   Topic = "stream_completed"
	TopicStreamError       Topic = "stream_error"
	TopicTitleUpdated      Topic = "title_updated"
	TopicRetrievalTargeted Topic = "retrieval_targeted"
	TopicRetrievalFallback Topic = "retrieval_fallback"
	TopicProviderFallback  Topic = "provider_fallback"
	TopicError             Topic = "error"
)

// Event is a message passed through the event bus.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler processes an event.
type Handler func(Event)
