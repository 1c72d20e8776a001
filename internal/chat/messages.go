package chat

// Payload is one outbound message produced by the machine. The machine
// never performs I/O itself; payloads are handed to a transport.
type Payload interface {
	payload()
}

// TextMessage is a plain text reply.
type TextMessage struct {
	To   string
	Body string
}

// Button is one tappable option of a ButtonMessage.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ButtonMessage carries up to three quick-reply buttons.
type ButtonMessage struct {
	To      string
	Body    string
	Buttons []Button
}

// ListRow is one row of a ListMessage.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListMessage shows a scrollable option list behind a single button.
type ListMessage struct {
	To         string
	Body       string
	ButtonText string
	Rows       []ListRow
}

// DocumentMessage asks the transport to deliver a generated document.
// Reference identifies the report period; rendering is the transport's
// concern.
type DocumentMessage struct {
	To        string
	Caption   string
	Reference string
}

// ReactionMessage reacts to an inbound message with an emoji.
type ReactionMessage struct {
	To        string
	MessageID string
	Emoji     string
}

// MarkRead acknowledges an inbound message.
type MarkRead struct {
	MessageID string
}

func (TextMessage) payload()     {}
func (ButtonMessage) payload()   {}
func (ListMessage) payload()     {}
func (DocumentMessage) payload() {}
func (ReactionMessage) payload() {}
func (MarkRead) payload()        {}
