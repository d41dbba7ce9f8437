package engine

import "context"

// Transport is the outbound request surface. service.Client implements it;
// tests substitute fakes.
type Transport interface {
	// DetectObject uploads an image and returns the raw response body.
	DetectObject(ctx context.Context, fields map[string]string) ([]byte, error)
	// MakeSentences re-requests sentences for the current selection.
	MakeSentences(ctx context.Context, fields map[string]string) ([]byte, error)
	// UpdateFrequency reports a spoken sentence; the reply is ignored.
	UpdateFrequency(ctx context.Context, sentence string) error
}

// Capture produces one JPEG frame from the camera collaborator.
type Capture interface {
	// TakePhoto blocks until a frame is available and returns its filename
	// and raw bytes.
	TakePhoto(ctx context.Context) (filename string, data []byte, err error)
}

// Player speaks one stored audio asset. Play blocks until playback finishes
// or ctx is cancelled; starting a new sentence cancels the previous one.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Notifier surfaces one-shot user-visible error dialogs.
type Notifier interface {
	ShowError(title, message string)
}

// View is the presentation capability interface. The orchestrator invokes
// it after list contents or markers change; the host decides how to draw.
type View interface {
	OnObjectsChanged()
	OnKeywordsChanged()
	OnSentencesChanged()
}

// VoiceSource supplies the voice parameters sampled at request time.
// Positions are raw [0,1] slider values; the orchestrator normalizes them.
type VoiceSource interface {
	Voice() string   // "male" or "female"
	Rate() float64   // [0,1]
	Volume() float64 // [0,1]
}

// AssetStore persists decoded audio and resolves playback paths.
type AssetStore interface {
	Put(filename string, data []byte) error
	Path(filename string) string
}
