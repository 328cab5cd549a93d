package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cratedeps/pkg/deps"
	"github.com/matzehuels/cratedeps/pkg/graph"
)

func TestBuildModelTracksExpansions(t *testing.T) {
	m := NewBuildModel("serde", nil)
	if !strings.Contains(m.View(), "looking up versions") {
		t.Errorf("initial view = %q", m.View())
	}

	for i, e := range []deps.Expansion{
		{Key: graph.Key{Name: "serde", Version: "1.0.219"}, Depth: 0, Nodes: 1},
		{Key: graph.Key{Name: "serde_derive", Version: "1.0.219"}, Depth: 1, Nodes: 2, Edges: 1},
		{Key: graph.Key{Name: "proc-macro2", Version: "1.0.95"}, Depth: 2, Nodes: 5, Edges: 4},
	} {
		next, _ := m.Update(expandMsg(e))
		m = next.(BuildModel)
		if m.Expanded != i+1 {
			t.Fatalf("Expanded = %d, want %d", m.Expanded, i+1)
		}
	}
	if m.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", m.MaxDepth)
	}
	view := m.View()
	if !strings.Contains(view, "proc-macro2 - 1.0.95") {
		t.Errorf("view does not show the last expanded crate:\n%s", view)
	}
}

func TestBuildModelCancelAndDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewBuildModel("tokio", cancel)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(BuildModel)
	if ctx.Err() == nil {
		t.Fatal("ctrl+c should cancel the build context")
	}

	next, cmd := m.Update(buildDoneMsg{err: context.Canceled})
	m = next.(BuildModel)
	if cmd == nil {
		t.Fatal("a finished build should quit the program")
	}
	if !errors.Is(m.err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", m.err)
	}
	if m.View() != "" {
		t.Errorf("finished view = %q, want empty", m.View())
	}
}
