package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cratedeps/pkg/deps"
)

// spinnerFrames match the non-interactive [Spinner].
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// BuildModel - live view of a running graph build
// =============================================================================

type (
	expandMsg    deps.Expansion
	buildDoneMsg struct {
		res *deps.Result
		err error
	}
	tickMsg time.Time
)

// BuildModel is the bubbletea model shown while a graph is built. It
// displays the crate being expanded, its depth and running totals. The
// build itself runs outside the model and reports through messages.
type BuildModel struct {
	Root     string
	Last     deps.Expansion
	Expanded int
	MaxDepth int
	Frame    int
	Started  time.Time

	cancel context.CancelFunc
	res    *deps.Result
	err    error
	done   bool
}

// NewBuildModel creates a model for a build of root. cancel is called when
// the user presses ctrl+c; the model keeps running until the build returns.
func NewBuildModel(root string, cancel context.CancelFunc) BuildModel {
	return BuildModel{Root: root, Started: time.Now(), cancel: cancel}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m BuildModel) Init() tea.Cmd {
	return tick()
}

func (m BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
		}
	case expandMsg:
		m.Last = deps.Expansion(msg)
		m.Expanded++
		m.MaxDepth = max(m.MaxDepth, msg.Depth)
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.Frame++
		return m, tick()
	case buildDoneMsg:
		m.res, m.err, m.done = msg.res, msg.err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m BuildModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	frame := spinnerFrames[m.Frame%len(spinnerFrames)]
	b.WriteString(styleIconSpinner.Render(frame))
	b.WriteString(" ")
	b.WriteString(StyleTitle.Render("Resolving " + m.Root))
	b.WriteString("\n")

	if m.Expanded == 0 {
		b.WriteString(StyleDim.Render("  looking up versions..."))
		b.WriteString("\n")
		return b.String()
	}

	indent := strings.Repeat(" ", min(m.Last.Depth, 12))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(iconInfo + indent + " "))
	b.WriteString(StyleValue.Render(m.Last.Key.String()))
	b.WriteString("\n  ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("%s crates · %s edges · depth %s · %s",
		StyleNumber.Render(fmt.Sprint(m.Last.Nodes)),
		StyleNumber.Render(fmt.Sprint(m.Last.Edges)),
		StyleNumber.Render(fmt.Sprint(m.MaxDepth)),
		time.Since(m.Started).Round(100*time.Millisecond))))
	b.WriteString("\n")
	return b.String()
}

// runWithProgress runs build while drawing a [BuildModel] on stderr.
func runWithProgress(ctx context.Context, root string, opts deps.Options,
	build func(context.Context, deps.Options) (*deps.Result, error)) (*deps.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewBuildModel(root, cancel), tea.WithOutput(os.Stderr))
	opts.OnExpand = func(e deps.Expansion) { p.Send(expandMsg(e)) }

	go func() {
		res, err := build(ctx, opts)
		p.Send(buildDoneMsg{res: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m := final.(BuildModel)
	return m.res, m.err
}
