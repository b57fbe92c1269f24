// Package cli provides the operator console: command dispatch against the
// engine plus a line-oriented terminal loop.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// CLI drives a Console from a line-oriented reader.
type CLI struct {
	Console   *Console
	In        io.Reader
	Out       io.Writer
	EchoInput bool // repeat each line after the prompt, for script playback
}

// New creates a CLI on stdin and stdout.
func New(console *Console) *CLI {
	return &CLI{Console: console, In: os.Stdin, Out: os.Stdout}
}

// Run reads commands until /quit, end of input or ctx is done. Blank
// lines and lines starting with # are ignored.
func (c *CLI) Run(ctx context.Context) {
	fmt.Fprintln(c.Out, "questrules console. Type /help for commands.")

	lines := bufio.NewScanner(c.In)
	for ctx.Err() == nil {
		fmt.Fprint(c.Out, "> ")
		if !lines.Scan() {
			return
		}
		line := strings.TrimSpace(lines.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if c.EchoInput {
			fmt.Fprintln(c.Out, line)
		}

		reply := c.Console.Exec(ctx, line)
		c.write(reply)
		if reply.Quit {
			return
		}
	}
}

// write prints a reply. Meta-command output is bracketed.
func (c *CLI) write(r Reply) {
	for _, line := range r.Lines {
		if r.System && line != "" {
			line = "[" + line + "]"
		}
		fmt.Fprintln(c.Out, line)
	}
}
