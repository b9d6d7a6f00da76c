package models

// FrameKind names the type of an outbound stream frame.
type FrameKind string

const (
	FrameReasoning  FrameKind = "reasoning"
	FrameToolResult FrameKind = "tool_result"
	FrameContent    FrameKind = "content"
)

// Frame is one unit of streamed output. Data is a JSON-encoded string.
type Frame struct {
	Kind FrameKind `json:"kind"`
	Data string    `json:"data"`
}
