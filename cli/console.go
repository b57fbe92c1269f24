package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/questrules/engine"
	"github.com/nathoo/questrules/engine/save"
)

// Reloader re-reads packages and hands them to the engine.
type Reloader func(ctx context.Context) []error

// Reply is the output of one console command.
type Reply struct {
	Lines  []string
	System bool // output of a meta-command
	Quit   bool
}

// Console dispatches operator commands against an engine. The plain CLI
// and the TUI both drive a Console.
type Console struct {
	Engine  *engine.Engine
	SaveDir string
	Reload  Reloader // nil disables /reload

	lastCmd string
}

// NewConsole creates a console wired to the given engine.
func NewConsole(eng *engine.Engine, saveDir string, reload Reloader) *Console {
	return &Console{Engine: eng, SaveDir: saveDir, Reload: reload}
}

// Exec runs one input line.
func (c *Console) Exec(ctx context.Context, input string) Reply {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}
	}

	// "again" / "g" repeats the last command.
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if c.lastCmd == "" {
			return Reply{Lines: []string{"Nothing to repeat."}, System: true}
		}
		input = c.lastCmd
	} else {
		c.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		return c.meta(ctx, input)
	}
	return Reply{Lines: c.command(ctx, input)}
}

// actorCommands take an actor and one name argument.
var actorCommands = map[string]bool{
	"check": true, "fire": true, "assign": true, "unassign": true, "complete": true, "trigger": true,
}

func (c *Console) command(ctx context.Context, input string) []string {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch {
	case cmd == "actors":
		return c.cmdActors()
	case cmd == "objectives":
		return c.cmdObjectives()
	case cmd == "join" || cmd == "leave" || cmd == "data":
		if len(args) != 1 {
			return []string{fmt.Sprintf("usage: %s <actor>", cmd)}
		}
	case actorCommands[cmd]:
		if len(args) != 2 {
			return []string{fmt.Sprintf("usage: %s <actor> <%s>", cmd, argName(cmd))}
		}
	default:
		return []string{fmt.Sprintf("error: unknown command %q. Type /help for available commands.", cmd)}
	}

	actor := args[0]
	if cmd == "join" {
		return c.cmdJoin(ctx, actor)
	}
	if !c.Engine.IsOnline(actor) {
		return []string{fmt.Sprintf("error: %s is not online (join %s first)", actor, actor)}
	}

	switch cmd {
	case "leave":
		if err := c.Engine.Leave(ctx, actor); err != nil {
			return []string{"error: " + err.Error()}
		}
		return []string{actor + " left."}
	case "data":
		return c.cmdData(actor)
	case "check":
		met, err := c.Engine.IsMet(ctx, actor, args[1])
		if err != nil {
			return []string{"error: " + err.Error()}
		}
		return []string{fmt.Sprintf("%s for %s = %t", args[1], actor, met)}
	case "fire":
		if err := c.Engine.Fire(ctx, actor, args[1]); err != nil {
			return []string{"error: " + err.Error()}
		}
		return []string{fmt.Sprintf("Fired %s for %s.", args[1], actor)}
	case "assign":
		if err := c.Engine.Assign(ctx, actor, args[1]); err != nil {
			return []string{"error: " + err.Error()}
		}
		return []string{fmt.Sprintf("Assigned %s to %s.", args[1], actor)}
	case "unassign":
		if err := c.Engine.Unassign(ctx, actor, args[1]); err != nil {
			return []string{"error: " + err.Error()}
		}
		return []string{fmt.Sprintf("Removed %s from %s.", args[1], actor)}
	case "complete":
		if err := c.Engine.Complete(ctx, actor, args[1]); err != nil {
			return []string{"error: " + err.Error()}
		}
		return []string{fmt.Sprintf("Completed %s for %s.", args[1], actor)}
	default: // trigger
		n := c.Engine.Trigger(ctx, actor, args[1])
		return []string{fmt.Sprintf("Trigger %s for %s reached %d objective(s).", args[1], actor, n)}
	}
}

func argName(cmd string) string {
	switch cmd {
	case "check":
		return "condition"
	case "fire":
		return "event"
	case "trigger":
		return "kind"
	}
	return "objective"
}

func (c *Console) cmdJoin(ctx context.Context, actor string) []string {
	if err := c.Engine.Join(ctx, actor); err != nil {
		return []string{"error: " + err.Error()}
	}
	lines := []string{actor + " joined."}
	if active := c.Engine.Objectives.Active(actor); len(active) > 0 {
		lines = append(lines, "Objectives: "+strings.Join(active, ", "))
	}
	return lines
}

func (c *Console) cmdActors() []string {
	online := c.Engine.Online()
	if len(online) == 0 {
		return []string{"No actors online."}
	}
	return []string{"Online: " + strings.Join(online, ", ")}
}

func (c *Console) cmdObjectives() []string {
	names := c.Engine.Objectives.Names()
	if len(names) == 0 {
		return []string{"No objectives loaded."}
	}
	lines := make([]string, 0, len(names))
	for _, name := range names {
		t, err := c.Engine.Objectives.Tracker(name)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%d active)", name, t.Len()))
	}
	return lines
}

func (c *Console) cmdData(actor string) []string {
	rec := c.Engine.Record(actor)
	lines := []string{
		fmt.Sprintf("Actor: %s", actor),
		fmt.Sprintf("Tags: %s", strings.Join(rec.Tags, ", ")),
	}
	cats := make([]string, 0, len(rec.Points))
	for cat := range rec.Points {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	var points []string
	for _, cat := range cats {
		points = append(points, fmt.Sprintf("%s=%d", cat, rec.Points[cat]))
	}
	lines = append(lines, "Points: "+strings.Join(points, ", "))

	names := make([]string, 0, len(rec.Objectives))
	for name := range rec.Objectives {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("Objective %s: %q", name, rec.Objectives[name]))
	}
	return lines
}

// meta dispatches meta-commands.
func (c *Console) meta(ctx context.Context, input string) Reply {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	var lines []string
	switch cmd {
	case "/quit", "/exit":
		return Reply{Lines: []string{"Goodbye."}, System: true, Quit: true}
	case "/save":
		lines = c.cmdSave(arg)
	case "/load":
		lines = c.cmdLoad(arg)
	case "/reload":
		lines = c.cmdReload(ctx)
	case "/help":
		return Reply{Lines: helpLines()}
	default:
		lines = []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}
	}
	return Reply{Lines: lines, System: true}
}

func (c *Console) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Engine)
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Snapshot saved to %s.", name)}
}

func (c *Console) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	lines := []string{fmt.Sprintf("Snapshot loaded from %s (%d actor(s)).", name, len(sd.Actors))}
	for _, err := range save.Apply(c.Engine, sd) {
		lines = append(lines, "warning: "+err.Error())
	}
	return lines
}

func (c *Console) cmdReload(ctx context.Context) []string {
	if c.Reload == nil {
		return []string{"Reload is not available."}
	}
	var lines []string
	for _, err := range c.Reload(ctx) {
		lines = append(lines, "warning: "+err.Error())
	}
	return append(lines, fmt.Sprintf("Reloaded %d objective(s).", len(c.Engine.Objectives.Names())))
}

func helpLines() []string {
	return []string{
		"System:",
		"  /save [name]  Save a snapshot (default: quicksave)",
		"  /load [name]  Load a snapshot (default: quicksave)",
		"  /reload       Re-read packages, keeping progress",
		"  /quit         Exit",
		"  /help         Show this help",
		"",
		"Commands:",
		"  join <actor>                     Bring an actor online",
		"  leave <actor>                    Save an actor and take it offline",
		"  check <actor> <condition>        Evaluate a condition",
		"  fire <actor> <event>             Run an event",
		"  assign <actor> <objective>       Give an objective",
		"  unassign <actor> <objective>     Remove an objective",
		"  complete <actor> <objective>     Complete an objective",
		"  trigger <actor> <kind>           Deliver a trigger",
		"  data <actor>                     Show tags, points and progress",
		"  actors                           List online actors",
		"  objectives                       List loaded objectives",
		"  again (g)                        Repeat the last command",
		"",
		"Names are qualified: <package>.<name>",
	}
}
