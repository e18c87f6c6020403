// Package platform sends desktop notifications through the host's
// notification service.
package platform

// AppName is the application name reported to the notification service.
const AppName = "ScribbleLens"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Urgent asks the notification service to keep the message visible.
	Urgent bool
}
