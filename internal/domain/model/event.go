package model

// ResetCommand forces the conversation back to START from any state.
const ResetCommand = "/start"

type EventKind string

const (
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
)

// MessageRef points at a message previously sent to the user so it can be edited or removed.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Event is one inbound user action: a typed message or a press on an offered choice.
type Event struct {
	Kind       EventKind
	UserID     string
	ChatID     int64
	UserName   string
	Payload    string
	CallbackID string
	Origin     *MessageRef // callbacks only
}

func (e Event) IsCallback() bool { return e.Kind == EventCallback }

func (e Event) IsReset() bool { return e.Payload == ResetCommand }
