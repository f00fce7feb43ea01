package notifications

import "github.com/outlierlabs/digest-curator/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendDigest(digest *models.Digest) error
	SendAlert(title, message string) error
}
