// Package uiprogress renders indexing progress to the CLI: a single
// carriage-return-updated line on an interactive terminal, line-per-update
// plain text otherwise (pipes, CI, Config.ForcePlain). NoColor only drops
// the styling.
package uiprogress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Event is one progress tick, matching pkg/indexer.Progress in shape so
// callers can pass that value straight through.
type Event struct {
	Total     int
	Processed int
	Current   string
}

// Reporter renders Events and a final summary line.
type Reporter interface {
	Update(e Event)
	Done(summary string)
	Warn(message string)
}

// Config controls reporter construction.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// New picks a TTY-aware reporter for cfg.Output: a carriage-return
// refreshed line for an interactive terminal, or one line per update for
// pipes/CI/cfg.ForcePlain.
func New(cfg Config) Reporter {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	styles := GetStyles(cfg.NoColor || DetectNoColor())

	if cfg.ForcePlain || !IsTTY(out) || DetectCI() {
		return &plainReporter{out: out, styles: styles}
	}
	return &ttyReporter{out: out, styles: styles}
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether NO_COLOR is set (https://no-color.org).
func DetectNoColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// DetectCI reports whether a common CI environment variable is set.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, ok := os.LookupEnv(v); ok {
			return true
		}
	}
	return false
}

// plainReporter writes one line per update, suitable for logs and pipes.
type plainReporter struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

func (r *plainReporter) Update(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Total > 0 {
		fmt.Fprintf(r.out, "[index] %d/%d %s\n", e.Processed, e.Total, e.Current)
		return
	}
	fmt.Fprintf(r.out, "[index] %s\n", e.Current)
}

func (r *plainReporter) Done(summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.styles.Success.Render(summary))
}

func (r *plainReporter) Warn(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, r.styles.Warning.Render("warning: "+message))
}

// ttyReporter refreshes a single line in place using carriage returns.
type ttyReporter struct {
	mu        sync.Mutex
	out       io.Writer
	styles    Styles
	lastWidth int
}

func (r *ttyReporter) Update(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var line string
	if e.Total > 0 {
		line = fmt.Sprintf("%s %d/%d %s",
			r.styles.Stage.Render("indexing"), e.Processed, e.Total,
			r.styles.Dim.Render(e.Current))
	} else {
		line = fmt.Sprintf("%s %s", r.styles.Stage.Render("indexing"), r.styles.Dim.Render(e.Current))
	}
	r.writeLine(line)
}

func (r *ttyReporter) Done(summary string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLine()
	fmt.Fprintln(r.out, r.styles.Success.Render(summary))
}

func (r *ttyReporter) Warn(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLine()
	fmt.Fprintln(r.out, r.styles.Warning.Render("warning: "+message))
}

func (r *ttyReporter) writeLine(line string) {
	pad := r.lastWidth - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(r.out, "\r%s%s", line, strings.Repeat(" ", pad))
	r.lastWidth = len(line)
}

func (r *ttyReporter) clearLine() {
	if r.lastWidth > 0 {
		fmt.Fprintf(r.out, "\r%s\r", strings.Repeat(" ", r.lastWidth))
		r.lastWidth = 0
	}
}
