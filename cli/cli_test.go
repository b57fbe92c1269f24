package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/questrules/engine"
	"github.com/nathoo/questrules/types"
)

// testPackages returns a small package for console testing.
func testPackages() []types.Package {
	return []types.Package{{
		Name: "quest1",
		Conditions: map[string]string{
			"alive": "tag alive",
		},
		Events: map[string]string{
			"revive": "tag add alive",
			"heal":   "point health 5",
			"start":  "objective add hunt",
		},
		Objectives: map[string]string{
			"hunt": "count kill 2 events:heal conditions:alive",
		},
	}}
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New(engine.Options{})
	if errs := eng.Load(testPackages()); len(errs) > 0 {
		t.Fatalf("Load: %v", errs)
	}
	return eng
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := &CLI{
		Console: NewConsole(newTestEngine(t), t.TempDir(), nil),
		In:      strings.NewReader(input),
		Out:     &out,
	}
	return c, &out
}

func run(t *testing.T, input string) string {
	t.Helper()
	c, out := newTestCLI(t, input)
	c.Run(context.Background())
	return out.String()
}

func TestCLI_Greeting(t *testing.T) {
	output := run(t, "/quit\n")
	if !strings.Contains(output, "Type /help") {
		t.Error("expected greeting")
	}
	if !strings.Contains(output, "[Goodbye.]") {
		t.Error("expected goodbye")
	}
}

func TestCLI_ObjectiveFlow(t *testing.T) {
	output := run(t, strings.Join([]string{
		"join steve",
		"fire steve quest1.start",
		"check steve quest1.alive",
		"trigger steve kill",
		"fire steve quest1.revive",
		"trigger steve kill",
		"data steve",
		"trigger steve kill",
		"data steve",
		"/quit",
	}, "\n"))

	for _, want := range []string{
		"steve joined.",
		"Fired quest1.start for steve.",
		"quest1.alive for steve = false",
		"Trigger kill for steve reached 1 objective(s).",
		`Objective quest1.hunt: "1"`,
		"Points: health=5",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCLI_RequiresJoin(t *testing.T) {
	output := run(t, "fire steve quest1.heal\n/quit\n")
	if !strings.Contains(output, "steve is not online") {
		t.Errorf("expected not-online error, got:\n%s", output)
	}
}

func TestCLI_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dance", `unknown command "dance"`},
		{"check steve", "usage: check <actor> <condition>"},
		{"join", "usage: join <actor>"},
		{"check steve quest1.nope", "error:"},
		{"assign steve nope.nope", "error:"},
		{"/bogus", "Unknown command"},
	}
	for _, tt := range tests {
		output := run(t, "join steve\n"+tt.input+"\n/quit\n")
		if !strings.Contains(output, tt.want) {
			t.Errorf("%q: expected %q in output:\n%s", tt.input, tt.want, output)
		}
	}
}

func TestCLI_ActorsAndObjectives(t *testing.T) {
	output := run(t, "actors\njoin steve\njoin alex\nassign steve quest1.hunt\nactors\nobjectives\nleave alex\nactors\n/quit\n")

	for _, want := range []string{
		"No actors online.",
		"Online: alex, steve",
		"quest1.hunt (1 active)",
		"alex left.",
		"Online: steve",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	output := run(t, "/help\n/quit\n")
	for _, want := range []string{"/save", "/load", "/reload", "/quit", "trigger <actor> <kind>"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in help output", want)
		}
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	c := &CLI{
		Console: NewConsole(newTestEngine(t), dir, nil),
		In:      strings.NewReader("join steve\nassign steve quest1.hunt\nfire steve quest1.revive\n/save test\n/quit\n"),
		Out:     &out,
	}
	c.Run(context.Background())
	if !strings.Contains(out.String(), "Snapshot saved to test.") {
		t.Fatalf("expected save confirmation:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "test.json")); err != nil {
		t.Fatalf("snapshot file: %v", err)
	}

	// Load into a fresh engine.
	var out2 bytes.Buffer
	c2 := &CLI{
		Console: NewConsole(newTestEngine(t), dir, nil),
		In:      strings.NewReader("/load test\ndata steve\n/quit\n"),
		Out:     &out2,
	}
	c2.Run(context.Background())

	loadOutput := out2.String()
	if !strings.Contains(loadOutput, "Snapshot loaded from test (1 actor(s)).") {
		t.Errorf("expected load confirmation:\n%s", loadOutput)
	}
	if !strings.Contains(loadOutput, `Objective quest1.hunt: "2"`) || !strings.Contains(loadOutput, "Tags: alive") {
		t.Errorf("expected restored progress:\n%s", loadOutput)
	}
}

func TestCLI_LoadNonexistent(t *testing.T) {
	output := run(t, "/load nonexistent\n/quit\n")
	if !strings.Contains(output, "Load failed") {
		t.Error("expected load failure message")
	}
}

func TestCLI_Reload(t *testing.T) {
	eng := newTestEngine(t)
	reloads := 0
	var out bytes.Buffer
	c := &CLI{
		Console: NewConsole(eng, t.TempDir(), func(ctx context.Context) []error {
			reloads++
			return eng.Reload(ctx, testPackages())
		}),
		In:  strings.NewReader("join steve\nassign steve quest1.hunt\n/reload\ndata steve\n/quit\n"),
		Out: &out,
	}
	c.Run(context.Background())

	if reloads != 1 {
		t.Errorf("reloads = %d, want 1", reloads)
	}
	if !strings.Contains(out.String(), "Reloaded 1 objective(s).") {
		t.Errorf("expected reload confirmation:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `Objective quest1.hunt: "2"`) {
		t.Errorf("progress lost across reload:\n%s", out.String())
	}
}

func TestCLI_ReloadUnavailable(t *testing.T) {
	output := run(t, "/reload\n/quit\n")
	if !strings.Contains(output, "Reload is not available.") {
		t.Error("expected reload unavailable message")
	}
}

func TestCLI_EchoAndComments(t *testing.T) {
	c, out := newTestCLI(t, "# setup\njoin steve\n\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	output := out.String()
	if strings.Contains(output, "# setup") {
		t.Error("comment lines should be skipped")
	}
	if !strings.Contains(output, "> join steve\n") {
		t.Errorf("expected echoed input:\n%s", output)
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	output := run(t, "join steve\nfire steve quest1.heal\nagain\ng\ndata steve\n/quit\n")
	if !strings.Contains(output, "Points: health=15") {
		t.Errorf("expected three heals:\n%s", output)
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	output := run(t, "again\n/quit\n")
	if !strings.Contains(output, "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}

func TestCLI_EndOfInput(t *testing.T) {
	// No /quit: the loop ends when input runs out.
	output := run(t, "join steve\n")
	if !strings.Contains(output, "steve joined.") {
		t.Error("expected command output before end of input")
	}
}
