package rapport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/rapport/pkg/domain"
)

// Runner drives one user's conversation over line-based IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	UserID   string
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner for the "local" user. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{UserID: "local"}
}

// Run renders the current screen, then reads one line per event until EOF or "exit".
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	reader := bufio.NewReader(r.Input)

	instr, err := engine.Render(ctx, r.UserID)
	if err != nil {
		return fmt.Errorf("render error: %w", err)
	}

	for {
		r.show(instr)

		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}
		if input == "" {
			continue
		}

		instr, err = engine.Dispatch(ctx, r.UserID, ParseInput(input, instr))
		if err != nil {
			return fmt.Errorf("dispatch error: %w", err)
		}
	}
}

func (r *Runner) show(instr domain.Instruction) {
	out := FormatInstruction(instr)
	if r.Renderer != nil {
		if rendered, err := r.Renderer(out); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(out))
}

// ParseInput maps a typed line to an event for the screen described by current.
// Slash commands: /back, /skip, /done, /edit <field>. A number picks the numbered option.
func ParseInput(input string, current domain.Instruction) domain.Event {
	switch {
	case input == "/back":
		return domain.BackRequested()
	case input == "/skip":
		return domain.SkipRequested()
	case input == "/done":
		return domain.DoneRequested(current.Field)
	case strings.HasPrefix(input, "/edit "):
		return domain.EditFieldRequested(strings.TrimSpace(strings.TrimPrefix(input, "/edit ")))
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(current.Options) {
		return domain.FreeText(input)
	}
	opt := current.Options[n-1]
	switch {
	case current.Kind == domain.InstructionIdle:
		return domain.EditFieldRequested(opt.ID)
	case current.NodeKind == domain.KindMultiChoice && current.Category != "":
		return domain.MultiToggle(current.Category, opt.ID)
	case current.NodeKind == domain.KindMultiChoice:
		return domain.CategoryOpened(opt.ID)
	}
	return domain.OptionSelected(opt.ID)
}

// FormatInstruction renders an instruction as markdown.
func FormatInstruction(instr domain.Instruction) string {
	var sb strings.Builder
	for _, n := range instr.Notices {
		sb.WriteString(n)
		sb.WriteString("\n\n")
	}
	if instr.Kind == domain.InstructionLink && instr.Link != "" {
		fmt.Fprintf(&sb, "<%s>\n\n", instr.Link)
	}
	sb.WriteString(instr.Text)
	sb.WriteString("\n\n")

	for i, opt := range instr.Options {
		mark := ""
		if opt.Selected {
			mark = " ✓"
		}
		fmt.Fprintf(&sb, "%d. %s%s\n", i+1, opt.Text, mark)
	}

	var hints []string
	if instr.CanGoBack {
		hints = append(hints, "/back")
	}
	if instr.CanSkip {
		hints = append(hints, "/skip")
	}
	if instr.NodeKind == domain.KindMultiChoice {
		hints = append(hints, "/done")
	}
	if instr.Kind == domain.InstructionIdle {
		hints = append(hints, "/edit <field>")
	}
	if len(hints) > 0 {
		fmt.Fprintf(&sb, "\n_%s_\n", strings.Join(hints, "  "))
	}
	if p := instr.Projection.Progress; p.RequiredTotal > 0 && !instr.Projection.Complete {
		fmt.Fprintf(&sb, "\nProgress: %d/%d required\n", p.RequiredDone, p.RequiredTotal)
	}
	return sb.String()
}
