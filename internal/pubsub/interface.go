package pubsub

// PubSubClient abstracts the message bus used to fan out ledger events.
type PubSubClient interface {
	SendMessage(topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
}
