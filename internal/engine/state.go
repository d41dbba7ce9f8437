package engine

// State is the orchestrator's position in the capture→upload→render cycle.
type State int

const (
	// StateIdle is the hand-menu view before any capture.
	StateIdle State = iota
	// StateCaptureRequested means the camera collaborator is producing a frame.
	StateCaptureRequested
	// StateUploading means a request is being built and sent.
	StateUploading
	// StateAwaitingResponse means the request is on the wire.
	StateAwaitingResponse
	// StateRendered means a parsed response is on screen.
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCaptureRequested:
		return "capture-requested"
	case StateUploading:
		return "uploading"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateRendered:
		return "rendered"
	default:
		return "unknown"
	}
}
