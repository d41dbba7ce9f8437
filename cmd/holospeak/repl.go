package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/pzhang-hci/holospeak/internal/engine"
	"github.com/pzhang-hci/holospeak/internal/facet"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// repl is the line-driven interactive host. It doubles as the orchestrator's
// view and notifier: change callbacks mark panels dirty, and the panels are
// redrawn once the command that caused them settles.
type repl struct {
	in      io.Reader
	out     io.Writer
	capture *fileCapture
	logger  *zap.Logger

	mu    sync.Mutex
	dirty map[facet.Kind]bool
}

func newREPL(in io.Reader, out io.Writer, capture *fileCapture, logger *zap.Logger) *repl {
	return &repl{
		in:      in,
		out:     out,
		capture: capture,
		logger:  logger,
		dirty:   map[facet.Kind]bool{},
	}
}

func (r *repl) OnObjectsChanged() { r.markDirty(facet.KindObject, facet.KindOption) }

func (r *repl) OnKeywordsChanged() { r.markDirty(facet.KindKeyword) }

func (r *repl) OnSentencesChanged() { r.markDirty(facet.KindSentence) }

func (r *repl) ShowError(title, message string) {
	fmt.Fprintln(r.out, errorStyle.Render(title+": "+message))
}

func (r *repl) markDirty(kinds ...facet.Kind) {
	r.mu.Lock()
	for _, k := range kinds {
		r.dirty[k] = true
	}
	r.mu.Unlock()
}

func (r *repl) run(ctx context.Context, orch *engine.Orchestrator) error {
	fmt.Fprintln(r.out, "holospeak interactive session, 'help' for commands")

	s := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "holo> ")
		if !s.Scan() {
			return s.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			r.printHelp()
		case "show":
			r.renderAll(orch)
		case "photo":
			if len(args) != 1 {
				fmt.Fprintln(r.out, "usage: photo <file>")
				continue
			}
			r.capture.SetSource(args[0])
			r.dispatch(orch, orch.RequestCapture(ctx), true)
		case "o", "object":
			r.click(ctx, orch, facet.KindObject, args)
		case "k", "keyword":
			r.click(ctx, orch, facet.KindKeyword, args)
		case "s", "sentence":
			r.click(ctx, orch, facet.KindSentence, args)
		case "p", "option":
			r.click(ctx, orch, facet.KindOption, args)
		case "ignore":
			r.dispatch(orch, orch.Ignore(ctx), true)
		case "back":
			orch.Back()
			r.render(orch)
		default:
			fmt.Fprintf(r.out, "unknown command %q, 'help' for commands\n", cmd)
		}
	}
}

// click parses one index argument and forwards the press. Sentence presses
// replay audio in the background, so they render immediately instead of
// waiting for the request cycle to settle.
func (r *repl) click(ctx context.Context, orch *engine.Orchestrator, kind facet.Kind, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(r.out, "usage: %s <index>\n", kind)
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "bad index %q\n", args[0])
		return
	}
	if index < 0 || index >= orch.Store().Len(kind) {
		fmt.Fprintf(r.out, "no %s facet %d\n", kind, index)
		return
	}

	r.dispatch(orch, orch.ClickFacet(ctx, kind, index), kind != facet.KindSentence)
}

// dispatch reports the outcome of one action and redraws. When wait is set
// the redraw happens after in-flight work drains, so the panels show the
// response rather than the intermediate state.
func (r *repl) dispatch(orch *engine.Orchestrator, err error, wait bool) {
	if errors.Is(err, engine.ErrBusy) {
		fmt.Fprintln(r.out, dimStyle.Render("still waiting on the previous request"))
		return
	}
	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
		return
	}
	if wait {
		orch.Wait()
	}
	r.render(orch)
}

// render redraws the panels marked dirty since the last draw.
func (r *repl) render(orch *engine.Orchestrator) {
	r.mu.Lock()
	dirty := r.dirty
	r.dirty = map[facet.Kind]bool{}
	r.mu.Unlock()

	objects, keywords, sentences, options := orch.Store().Snapshot()
	if dirty[facet.KindObject] {
		r.renderPanel("Objects", objects)
	}
	if dirty[facet.KindKeyword] {
		r.renderPanel("Keywords", keywords)
	}
	if dirty[facet.KindSentence] {
		r.renderPanel("Sentences", sentences)
	}
	if dirty[facet.KindOption] {
		r.renderPanel("Options", options)
	}
}

func (r *repl) renderAll(orch *engine.Orchestrator) {
	objects, keywords, sentences, options := orch.Store().Snapshot()
	r.renderPanel("Objects", objects)
	r.renderPanel("Keywords", keywords)
	r.renderPanel("Sentences", sentences)
	r.renderPanel("Options", options)
	fmt.Fprintln(r.out, dimStyle.Render("state: "+orch.State().String()))
}

func (r *repl) renderPanel(title string, list facet.List) {
	fmt.Fprintln(r.out, titleStyle.Render(title))
	if len(list) == 0 {
		fmt.Fprintln(r.out, dimStyle.Render("  (none)"))
		return
	}
	for i, f := range list {
		label := f.Label
		switch {
		case f.Playing:
			label = playingStyle.Render("▶ " + label)
		case f.Selected:
			label = selectedStyle.Render("● " + label)
		}
		fmt.Fprintf(r.out, "  %d. %s\n", i, label)
	}
}

func (r *repl) printHelp() {
	fmt.Fprint(r.out, `commands:
  photo <file>      capture an image and request detection
  o|object <n>      toggle object n and regenerate sentences
  k|keyword <n>     toggle keyword n and regenerate sentences
  p|option <n>      toggle catalog option n and regenerate sentences
  s|sentence <n>    play sentence n
  ignore            skip the detected object, ask for generic sentences
  back              clear the session
  show              redraw all panels
  quit              exit
`)
}
