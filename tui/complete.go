package tui

import (
	"sort"
	"strings"

	"github.com/nathoo/questrules/types"
)

var consoleCommands = []string{
	"/help", "/load", "/quit", "/reload", "/save",
	"actors", "assign", "check", "complete", "data", "fire",
	"join", "leave", "objectives", "trigger", "unassign",
}

// candidates returns the words that may fill position n (0-based) of a
// command line starting with cmd.
func (m Model) candidates(cmd string, n int) []string {
	eng := m.console.Engine
	switch {
	case n == 0:
		return consoleCommands
	case n == 1 && cmd != "join" && !strings.HasPrefix(cmd, "/"):
		return eng.Online()
	case n == 2:
		switch cmd {
		case "check":
			return eng.Catalog.Names(types.CategoryCondition)
		case "fire":
			return eng.Catalog.Names(types.CategoryEvent)
		case "assign", "unassign", "complete":
			return eng.Objectives.Names()
		}
	}
	return nil
}

// complete completes the last word of input. A single match is filled in
// with a trailing space; several matches are extended to their common
// prefix and returned for display.
func complete(input string, candidates []string) (string, []string) {
	cut := strings.LastIndex(input, " ") + 1
	word := input[cut:]

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return input, nil
	case 1:
		return input[:cut] + matches[0] + " ", nil
	}
	return input[:cut] + commonPrefix(matches), matches
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
