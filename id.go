package threadkit

import "github.com/google/uuid"

// GenerateThreadID creates a unique thread identifier.
func GenerateThreadID() string {
	return "thread-" + uuid.New().String()
}

// GenerateItemID creates a unique item identifier with a kind prefix,
// e.g. GenerateItemID("message") -> "message-<uuid>".
func GenerateItemID(kind string) string {
	return kind + "-" + uuid.New().String()
}

// GenerateAttachmentID creates a unique attachment identifier.
func GenerateAttachmentID() string {
	return "attachment-" + uuid.New().String()
}
