package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Actions pushed to clients.
const (
	ActionListUpdated  = "list.updated"
	ActionListShared   = "list.shared"
	ActionMemberJoined = "list.member.joined"
	ActionSystemStats  = "system.stats"
	ActionError        = "error"
)

// NewMessage marshals an action and payload into a wire message. Marshal
// errors are impossible for the payload types used here, so they are
// swallowed and produce a bare error message instead.
func NewMessage(action string, payload interface{}) []byte {
	raw, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		return NewErrorMessage("internal encoding error")
	}
	return raw
}

// NewErrorMessage builds an error message for a client.
func NewErrorMessage(msg string) []byte {
	raw, _ := json.Marshal(Message{Action: ActionError, Payload: msg})
	return raw
}
