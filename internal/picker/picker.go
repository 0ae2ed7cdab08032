// Package picker defines the asset picker contract and a terminal
// implementation. A pick is a one-shot deferred interaction: the caller
// blocks until the user answers, and a nil selection means cancelled.
package picker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/pagedeck/pdk/internal/assets"
)

// Options controls what the picker offers.
type Options struct {
	SelectedID       string
	AllowedFiletypes []string
	MultiSelect      bool
}

// Selection holds the chosen asset ids in selection order.
type Selection struct {
	IDs []string
}

// Picker presents the catalog and waits for the user. A (nil, nil) return
// means the user cancelled; no operation should be dispatched.
type Picker interface {
	Pick(ctx context.Context, catalog assets.Catalog, opts Options) (*Selection, error)
}

// Terminal is a stdin/stdout picker listing the filtered catalog sorted by
// filename.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

// NewTerminal returns a picker reading from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

// StdinIsTerminal reports whether stdin is interactive.
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Pick lists the matching assets and reads one line: an index (or several,
// comma or space separated, when MultiSelect). An empty line cancels.
func (t *Terminal) Pick(ctx context.Context, catalog assets.Catalog, opts Options) (*Selection, error) {
	list := catalog.List(opts.AllowedFiletypes, assets.SortFilename)
	if len(list) == 0 {
		fmt.Fprintln(t.out, "No matching assets.")
		return nil, nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}
	for i, a := range list {
		mark := " "
		if a.ID == opts.SelectedID {
			mark = "*"
		}
		name := truncate(a.Filename, width-20)
		fmt.Fprintf(t.out, "%s %3d  %-10s %s\n", mark, i+1, a.Filetype, name)
	}
	if opts.MultiSelect {
		fmt.Fprint(t.out, "Select assets (e.g. 1,3,4; empty cancels): ")
	} else {
		fmt.Fprint(t.out, "Select asset (empty cancels): ")
	}

	line, err := readLine(ctx, t.in)
	if err != nil {
		return nil, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	if !opts.MultiSelect && len(fields) > 1 {
		fields = fields[:1]
	}
	sel := &Selection{}
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > len(list) {
			return nil, fmt.Errorf("invalid selection %q", f)
		}
		sel.IDs = append(sel.IDs, list[n-1].ID)
	}
	return sel, nil
}

// truncate shortens name to max runes with an ellipsis. Widths too small to
// hold the ellipsis leave the name alone; the terminal wraps instead.
func truncate(name string, max int) string {
	if max < 4 || len(name) <= max {
		return name
	}
	return name[:max-3] + "..."
}

// readLine reads one line, honoring context cancellation. There is no way
// to abort the blocking read itself; a cancelled context abandons it.
func readLine(ctx context.Context, in io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		r := bufio.NewReader(in)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			ch <- result{"", err}
			return
		}
		ch <- result{line, nil}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err == io.EOF {
			return "", nil
		}
		return res.line, res.err
	}
}
