package services

// Publisher pushes a message to every client watching a list. Satisfied by
// the websocket hub; tests pass a capture fake or nil.
type Publisher interface {
	BroadcastTo(listID string, message []byte)
}
