// Package engine sequences the capture → upload → parse → render pipeline
// and owns the session facet state while doing so.
package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pzhang-hci/holospeak/internal/codec"
	"github.com/pzhang-hci/holospeak/internal/facet"
	"github.com/pzhang-hci/holospeak/internal/runlog"
)

// ErrBusy rejects a request-triggering action while another main request is
// in flight. Both requests would mutate the same session, so they are never
// allowed to run concurrently.
var ErrBusy = errors.New("a request is already in flight")

// Rate normalization ranges for the [0,1] slider value. The two call sites
// inherited different ranges; they are kept distinct on purpose.
const (
	detectRateMin   = 50
	sentenceRateMin = 100
	rateMax         = 200
)

// EventLog receives run-log events. runlog.Logger implements it.
type EventLog interface {
	Write(event runlog.Event, message string) error
}

// Config wires the orchestrator's collaborators. Transport is required;
// everything else degrades gracefully when nil.
type Config struct {
	Store     *facet.Store
	Transport Transport
	Capture   Capture
	Player    Player
	Notifier  Notifier
	View      View
	Voice     VoiceSource
	Assets    AssetStore
	Events    EventLog
	Logger    *zap.Logger
}

// Orchestrator is the session pipeline controller. It owns the facet store
// exclusively; collaborators only ever see derived values or callbacks.
type Orchestrator struct {
	store     *facet.Store
	sel       *facet.Engine
	transport Transport
	capture   Capture
	player    Player
	notifier  Notifier
	view      View
	voice     VoiceSource
	assets    AssetStore
	events    EventLog
	logger    *zap.Logger

	mu          sync.Mutex
	state       State
	inFlight    bool
	gen         int // bumped by Back; stale responses are dropped
	lastElapsed time.Duration

	playMu     sync.Mutex
	playCancel context.CancelFunc

	wg sync.WaitGroup
}

// beginToken carries what finish needs to restore or supersede a cycle.
type beginToken struct {
	prev State
	gen  int
}

// New creates an orchestrator in StateIdle with an empty session.
func New(cfg Config) *Orchestrator {
	store := cfg.Store
	if store == nil {
		store = facet.NewStore(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:     store,
		sel:       facet.NewEngine(store),
		transport: cfg.Transport,
		capture:   cfg.Capture,
		player:    cfg.Player,
		notifier:  cfg.Notifier,
		view:      cfg.View,
		voice:     cfg.Voice,
		assets:    cfg.Assets,
		events:    cfg.Events,
		logger:    logger,
	}
}

// Store exposes the session state for rendering.
func (o *Orchestrator) Store() *facet.Store { return o.store }

// State returns the current pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastElapsed returns the wall-clock duration of the most recent completed
// request cycle, request-issued to response-parsed.
func (o *Orchestrator) LastElapsed() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastElapsed
}

// Wait blocks until all in-flight asynchronous work has drained.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// RequestCapture starts the photo pipeline: the options panel is reseeded,
// the camera collaborator produces a frame, and the frame is uploaded for
// detection. Without a camera the press is skipped silently.
func (o *Orchestrator) RequestCapture(ctx context.Context) error {
	o.logEvent(runlog.EventClickCamera, "")
	if o.capture == nil {
		o.logger.Debug("no capture collaborator, ignoring camera press")
		return nil
	}

	token, err := o.begin(StateCaptureRequested)
	if err != nil {
		return err
	}

	o.store.ResetOptions()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		filename, data, err := o.capture.TakePhoto(ctx)
		if err != nil {
			o.logger.Warn("photo capture failed", zap.Error(err))
			o.finish(token, false)
			return
		}
		o.logEvent(runlog.EventImageSaved, filename)
		o.uploadImage(ctx, filename, data, token)
	}()
	return nil
}

// ClickFacet handles a press on one facet button.
//
// Sentence presses replay cached audio and never trigger a main request.
// Object, option, and keyword presses toggle selection and re-request
// sentences; they return ErrBusy while a request is already in flight.
func (o *Orchestrator) ClickFacet(ctx context.Context, kind facet.Kind, index int) error {
	o.logEvent(clickEvent(kind), o.store.Label(kind, index))

	if kind == facet.KindSentence {
		o.playSentence(ctx, index)
		return nil
	}

	token, err := o.begin(StateUploading)
	if err != nil {
		o.logger.Debug("facet click rejected",
			zap.Stringer("kind", kind), zap.Int("index", index), zap.Error(err))
		return err
	}

	// A user press always takes ownership of the object panel away from
	// the server.
	o.store.SetOverwriteObjects(false)
	o.store.ToggleSelection(kind, index)
	o.store.ClearAudioRefs()

	switch kind {
	case facet.KindObject, facet.KindOption:
		o.notifyObjects()
		o.notifyKeywords() // toggling an object cleared them
	case facet.KindKeyword:
		o.notifyKeywords()
	}

	o.launchSentenceRequest(ctx, token)
	return nil
}

// Ignore skips detection entirely: the correlation id and selections are
// cleared and sentences are requested with "no specific object" semantics.
func (o *Orchestrator) Ignore(ctx context.Context) error {
	o.logEvent(runlog.EventClickIgnore, "")

	token, err := o.begin(StateUploading)
	if err != nil {
		return err
	}

	o.store.ClearRootKey()
	o.store.ClearObjectSelections()
	o.store.ClearKeywordSelections()

	o.launchSentenceRequest(ctx, token)
	return nil
}

// Back tears the session down to the initial empty state. A response still
// in flight is superseded and will be dropped when it lands.
func (o *Orchestrator) Back() {
	o.logEvent(runlog.EventClickBack, "")
	o.stopPlayback()

	o.mu.Lock()
	o.gen++
	o.state = StateIdle
	o.mu.Unlock()

	o.store.Reset()
	o.notifyObjects()
	o.notifyKeywords()
	o.notifySentences()
}

// uploadImage runs the detection request for one captured frame.
func (o *Orchestrator) uploadImage(ctx context.Context, filename string, data []byte, token beginToken) {
	o.setState(StateUploading)

	fields := o.voiceFields(detectRateMin)
	fields["data"] = base64.StdEncoding.EncodeToString(data)
	fields["filename"] = filename

	started := time.Now()
	o.logEvent(runlog.EventRequest, "")
	o.setState(StateAwaitingResponse)

	raw, err := o.transport.DetectObject(ctx, fields)
	if err != nil {
		o.logger.Warn("detect request failed", zap.Error(err))
		o.showError("Failed to detect object")
		o.finish(token, false)
		return
	}
	o.logEvent(runlog.EventImageResponse, "")

	o.completeRequest(raw, started, token)
}

// launchSentenceRequest issues one /makesentences cycle for the current
// selection. The caller must already hold a begin token.
func (o *Orchestrator) launchSentenceRequest(ctx context.Context, token beginToken) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		fields := o.voiceFields(sentenceRateMin)
		fields["basename"] = uuid.NewString()
		fields["object"] = o.sel.CurrentObjectString()
		fields["keywords"] = o.sel.CurrentKeywordString()

		started := time.Now()
		o.logEvent(runlog.EventRequest, "")
		o.setState(StateAwaitingResponse)

		raw, err := o.transport.MakeSentences(ctx, fields)
		if err != nil {
			o.logger.Warn("sentence request failed", zap.Error(err))
			o.showError("Failed to generate sentences")
			o.finish(token, false)
			return
		}
		o.logEvent(runlog.EventTextResponse, "")

		o.completeRequest(raw, started, token)
	}()
}

// completeRequest parses and applies one response, then reports timing.
// Responses superseded by Back are dropped without touching the store.
func (o *Orchestrator) completeRequest(raw []byte, started time.Time, token beginToken) {
	o.mu.Lock()
	stale := token.gen != o.gen
	o.mu.Unlock()
	if stale {
		o.logger.Debug("dropping superseded response")
		o.finish(token, false)
		return
	}

	if err := o.applyResponse(raw); err != nil {
		// The store is untouched; the previous view stands.
		o.logger.Error("response rejected", zap.Error(err))
		o.finish(token, false)
		return
	}

	elapsed := time.Since(started)
	o.mu.Lock()
	o.lastElapsed = elapsed
	o.mu.Unlock()
	o.logEvent(runlog.EventTimeCost, fmt.Sprintf("%dms", elapsed.Milliseconds()))

	o.finish(token, true)
}

// applyResponse parses the payload, persists its audio, and swaps the facet
// lists. Nothing is applied unless every step succeeds.
func (o *Orchestrator) applyResponse(raw []byte) error {
	resp, err := codec.Parse(raw)
	if err != nil {
		return err
	}

	if o.assets != nil {
		if err := codec.DecodeAudioAssets(resp.AudioFilenames, resp.AudioData, o.assets); err != nil {
			return err
		}
	}

	o.store.ReplaceAll(resp.Objects, resp.Keywords, resp.Sentences,
		resp.AudioFilenames, resp.RootKey,
		o.sel.ShouldOverwriteOnServerResponse(resp.OverwriteObjects))

	o.notifyObjects()
	o.notifyKeywords()
	o.notifySentences()
	return nil
}

// playSentence replays the cached audio for one sentence and reports its
// use to the server. The telemetry request is fire-and-forget: it may race
// with or outlive anything else and never touches the store.
func (o *Orchestrator) playSentence(ctx context.Context, index int) {
	ref, ok := o.store.AudioRef(index)
	if !ok {
		return
	}
	sentence := o.store.Label(facet.KindSentence, index)

	if o.transport != nil {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.transport.UpdateFrequency(context.Background(), sentence); err != nil {
				o.logger.Debug("frequency update failed", zap.Error(err))
			}
		}()
	}

	if o.player == nil || o.assets == nil {
		// No audio path on this host; skip silently.
		return
	}

	o.playMu.Lock()
	if o.playCancel != nil {
		o.playCancel() // stop the previous sentence
	}
	o.store.ClearPlaying()
	playCtx, cancel := context.WithCancel(ctx)
	o.playCancel = cancel
	o.playMu.Unlock()

	o.store.SetPlaying(index, true)
	o.notifySentences()

	path := o.assets.Path(ref)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.player.Play(playCtx, path); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Warn("playback failed", zap.String("path", path), zap.Error(err))
		}
		// The marker is transient: always cleared once playback ends,
		// however it ends.
		o.store.SetPlaying(index, false)
		o.notifySentences()
	}()
}

func (o *Orchestrator) stopPlayback() {
	o.playMu.Lock()
	if o.playCancel != nil {
		o.playCancel()
		o.playCancel = nil
	}
	o.playMu.Unlock()
	o.store.ClearPlaying()
}

// begin claims the single request slot and moves to next.
func (o *Orchestrator) begin(next State) (beginToken, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return beginToken{}, ErrBusy
	}
	o.inFlight = true
	token := beginToken{prev: o.state, gen: o.gen}
	o.state = next
	return token, nil
}

// finish releases the request slot. On failure the state falls back to the
// previous rendered or idle view; a superseded cycle leaves state alone.
func (o *Orchestrator) finish(token beginToken, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	if token.gen != o.gen {
		return
	}
	switch {
	case success:
		o.state = StateRendered
	case token.prev == StateRendered:
		o.state = StateRendered
	default:
		o.state = StateIdle
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// voiceFields samples the voice controls into request parameters.
func (o *Orchestrator) voiceFields(rateMin int) map[string]string {
	voice, rate, volume := "male", 0.5, 0.5
	if o.voice != nil {
		voice = o.voice.Voice()
		rate = o.voice.Rate()
		volume = o.voice.Volume()
	}
	return map[string]string{
		"voice":  voice,
		"rate":   strconv.Itoa(normalizeRate(rate, rateMin, rateMax)),
		"volume": strconv.FormatFloat(volume, 'g', -1, 64),
	}
}

// normalizeRate maps a [0,1] slider position into [min,max].
func normalizeRate(v float64, min, max int) int {
	return int(float64(max-min)*v + float64(min))
}

func clickEvent(kind facet.Kind) runlog.Event {
	switch kind {
	case facet.KindObject:
		return runlog.EventClickObject
	case facet.KindKeyword:
		return runlog.EventClickKeyword
	case facet.KindSentence:
		return runlog.EventClickSentence
	default:
		return runlog.EventClickOption
	}
}

func (o *Orchestrator) logEvent(event runlog.Event, message string) {
	if o.events == nil {
		return
	}
	if err := o.events.Write(event, message); err != nil {
		o.logger.Debug("run log write failed", zap.Error(err))
	}
}

func (o *Orchestrator) showError(message string) {
	if o.notifier == nil {
		return
	}
	o.notifier.ShowError("Error", message)
}

func (o *Orchestrator) notifyObjects() {
	if o.view != nil {
		o.view.OnObjectsChanged()
	}
}

func (o *Orchestrator) notifyKeywords() {
	if o.view != nil {
		o.view.OnKeywordsChanged()
	}
}

func (o *Orchestrator) notifySentences() {
	if o.view != nil {
		o.view.OnSentencesChanged()
	}
}
