package entity

// Storage resource classifications for uploaded documents.
const (
	ResourceImage = "image"
	ResourceRaw   = "raw"
)

// FileMetadata is stored alongside an uploaded document in the media store.
type FileMetadata struct {
	MIMEType     string `bson:"mime_type"`
	ChatID       string `bson:"chat_id"`
	Slot         string `bson:"slot"`
	ResourceType string `bson:"resource_type"`
}
