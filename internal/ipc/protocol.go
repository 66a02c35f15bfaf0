package ipc

// Commands understood by a running tubenote process.
const (
	CommandStatus = "status"
	CommandCancel = "cancel"
)

// Request is one line of JSON sent by the client.
type Request struct {
	Command string `json:"command"`
}

// Response carries the outcome plus the current progress status line.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
