// Package kv provides the local key-value persistence used for session
// flags, the active transcript identifier, and the serialized message
// snapshot. Missing keys read as the empty string; clearing a value is
// writing the empty string. There is no delete operation.
package kv

// Store is the key-value contract.
type Store interface {
	// Get returns the value for key, or "" when the key is absent.
	Get(key string) (string, error)

	// Set writes the value for key. Setting "" clears it.
	Set(key, value string) error
}

// Well-known keys.
const (
	// KeyActiveTranscript holds the identifier of the transcript the
	// session is appending to.
	KeyActiveTranscript = "widgetID"

	// KeyMessages holds the JSON-serialized message sequence of the
	// active session.
	KeyMessages = "chatMessages"

	// KeyTranscriptTitle holds the active transcript's title, so a
	// restored session does not overwrite the remote title with "".
	KeyTranscriptTitle = "widgetTitle"

	// KeyLoggedIn holds "true" while a user session is active.
	KeyLoggedIn = "isLoggedIn"

	// KeyUserID holds the authenticated user identifier.
	KeyUserID = "userID"

	// KeyRole holds the authenticated user's role.
	KeyRole = "role"

	// KeySelectedDevice holds the JSON-serialized switch the monitor
	// polls.
	KeySelectedDevice = "selectedDevice"
)
