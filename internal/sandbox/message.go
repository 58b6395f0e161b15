// Package sandbox defines the two-way message channel between the host and
// an isolated execution context, and the host-side result collection rules.
package sandbox

// MessageType identifies one protocol message.
type MessageType string

const (
	MsgExecute  MessageType = "execute"
	MsgStdout   MessageType = "stdout"
	MsgStderr   MessageType = "stderr"
	MsgComplete MessageType = "complete"
	MsgError    MessageType = "error"
)

// Message is one protocol frame. Which fields are meaningful depends on Type:
// execute carries Code and Input, stdout/stderr carry Data, complete carries
// ExitCode, error carries Data plus Stack.
type Message struct {
	Type     MessageType
	Code     string
	Input    string
	Data     string
	Stack    string
	ExitCode int
}
