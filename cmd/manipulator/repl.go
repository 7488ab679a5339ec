package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kballard/go-shellquote"

	"nickandperla.net/manipulator/internal/codec"
	"nickandperla.net/manipulator/pkg/manipulator"
)

// Latin letters accepted in place of the command alphabet.
var latinAliases = strings.NewReplacer(
	"L", "Л", // left
	"R", "П", // right
	"U", "В", // up
	"D", "Н", // down
	"G", "О", // grab
	"P", "Б", // place
)

// normalize upper-cases typed commands and maps Latin aliases.
func normalize(s string) string {
	return latinAliases.Replace(codec.Normalize(s))
}

func (c *cli) printBanner() {
	fmt.Fprintln(c.out, "manipulator REPL (Ctrl+D to exit, :help for commands)")
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Commands: Л/L left  П/R right  В/U up  Н/D down  О/G grab  Б/P place")
	fmt.Fprintln(c.out)
	fmt.Fprint(c.out, c.runtime.Render())
}

func (c *cli) printHelp() {
	fmt.Fprintln(c.out, "  <commands>        execute, e.g. ЛЛЛПППОБ or RRDDGP")
	fmt.Fprintln(c.out, "  :optimize <text>  show the optimized form")
	fmt.Fprintln(c.out, "  :expand <text>    expand compact notation")
	fmt.Fprintln(c.out, "  :history [N]      list the last N runs (default 5)")
	fmt.Fprintln(c.out, "  :show <id>        show one run with samples before and after")
	fmt.Fprintln(c.out, "  :samples          show the table")
	fmt.Fprintln(c.out, "  :reset            scatter new samples")
	fmt.Fprintln(c.out, "  :quit             exit")
}

// repl reads commands line by line until EOF or :quit.
func (c *cli) repl(in io.Reader, interactive bool) {
	if interactive {
		c.printBanner()
	}
	reader := bufio.NewReader(in)
	for {
		if interactive {
			fmt.Fprint(c.out, ">>> ")
		}
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if !c.handle(line) {
				return
			}
		}
		if err != nil {
			if interactive {
				fmt.Fprintln(c.out)
			}
			return
		}
	}
}

// handle processes one line and reports whether to keep reading.
func (c *cli) handle(line string) bool {
	if !strings.HasPrefix(line, ":") {
		c.execute(line)
		return true
	}

	words, err := shellquote.Split(line[1:])
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return true
	}
	if len(words) == 0 {
		return true
	}
	cmd, args := words[0], words[1:]

	switch cmd {
	case "quit", "q", "exit":
		return false
	case "help", "h":
		c.printHelp()
	case "optimize", "o":
		fmt.Fprintln(c.out, manipulator.Optimize(normalize(strings.Join(args, ""))))
	case "expand", "x":
		text, err := manipulator.Expand(strings.Join(args, ""))
		if err != nil {
			fmt.Fprintf(c.errOut, "Error: %v\n", err)
			break
		}
		fmt.Fprintln(c.out, text)
	case "history":
		limit := 5
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(c.errOut, "Error: bad count %q\n", args[0])
				break
			}
			limit = n
		}
		c.printHistory(limit)
	case "show":
		if len(args) != 1 {
			fmt.Fprintln(c.errOut, "Usage: :show <id>")
			break
		}
		c.printRecord(args[0])
	case "samples":
		for _, s := range c.runtime.Samples() {
			fmt.Fprintf(c.out, "  sample %d at %s\n", s.ID, s.Position)
		}
		fmt.Fprint(c.out, c.runtime.Render())
	case "reset":
		if err := c.runtime.ResetSamples(); err != nil {
			fmt.Fprintf(c.errOut, "Error: %v\n", err)
			break
		}
		fmt.Fprint(c.out, c.runtime.Render())
	default:
		fmt.Fprintf(c.errOut, "Unknown command :%s (try :help)\n", cmd)
	}
	return true
}

func (c *cli) printHistory(limit int) {
	records, err := c.runtime.History(limit)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Fprintln(c.out, "No runs yet")
		return
	}
	for _, r := range records {
		fmt.Fprintf(c.out, "%s %s  %-20s %-20s %s (%s)\n",
			r.Date, r.Time, r.Original, r.Optimized, shortID(r.ID), humanize.Time(r.Completed))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// findRecord looks up a run by id, or by id prefix as printed by :history.
func (c *cli) findRecord(id string) (*manipulator.Record, error) {
	if r, err := c.runtime.Record(id); r != nil || err != nil {
		return r, err
	}
	records, err := c.runtime.History(0)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if strings.HasPrefix(records[i].ID, id) {
			return &records[i], nil
		}
	}
	return nil, nil
}

func (c *cli) printRecord(id string) {
	r, err := c.findRecord(id)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}
	if r != nil {
		fmt.Fprintf(c.out, "id:        %s\n", r.ID)
		fmt.Fprintf(c.out, "completed: %s %s\n", r.Date, r.Time)
		fmt.Fprintf(c.out, "original:  %s\n", r.Original)
		fmt.Fprintf(c.out, "optimized: %s\n", r.Optimized)
		for i, before := range r.SamplesBefore {
			after := before
			if i < len(r.SamplesAfter) {
				after = r.SamplesAfter[i]
			}
			fmt.Fprintf(c.out, "sample %d:  %s -> %s\n", before.ID, before.Position, after.Position)
		}
		return
	}
	fmt.Fprintf(c.errOut, "No run with id %s\n", id)
}
