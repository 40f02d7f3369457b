package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	// EventOutcomeRecorded is published after an outcome has been appended
	// and its derived streak state installed.
	EventOutcomeRecorded EventType = "outcome-recorded"
)
