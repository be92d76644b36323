package chat

// Messenger is the chat transport adapter interface. Implementations deliver
// outbound messages for a given conversation; chat IDs are opaque strings so
// services can message conversations other than the one being handled.
type Messenger interface {
	SendText(chatID, text string) error
	SendMenu(chatID, text string, rows [][]MenuButton) error
	SendInlineOptions(chatID, text string, buttons []InlineButton) error
	SendContactRequest(chatID, text, buttonText string) error
	SendLocationRequest(chatID, text, buttonText string) error
	SendLocation(chatID string, lat, lon float64, livePeriod int64) error
	AnswerCallback(callbackID, text string) error
}

// MenuButton represents a button in a reply/menu keyboard.
type MenuButton struct {
	Text string
}

// InlineButton represents an inline button with callback data.
type InlineButton struct {
	Text string
	Data string
}

// FileInput carries the metadata of an inbound file or photo.
type FileInput struct {
	FileID   string
	FileName string
	MIMEType string
	Size     int64
	IsPhoto  bool
}

// LocationInput carries a structured coordinate payload.
// LivePeriod is nonzero when the user shares live location.
type LocationInput struct {
	Latitude   float64
	Longitude  float64
	LivePeriod int64
}

// UserInput is the closed set of inbound event kinds. Exactly one of the
// optional fields is set per event.
type UserInput struct {
	Text         string
	CallbackData string
	CallbackID   string
	Phone        string
	File         *FileInput
	Location     *LocationInput
}
