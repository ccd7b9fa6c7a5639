package repl

import (
	"fmt"
	"io"
	"strings"

	"lama/errors"
	"lama/jobmanager"
	"lama/serialization"
	"lama/shared"
)

// DisplayManager manages visual indicators and formatting for the REPL
type DisplayManager struct {
	out       io.Writer
	useColors bool
}

// NewDisplayManager creates a new display manager
func NewDisplayManager(out io.Writer, useColors bool) *DisplayManager {
	return &DisplayManager{out: out, useColors: useColors}
}

// colorize wraps text in an ANSI color when colors are enabled
func (dm *DisplayManager) colorize(text, kind string) string {
	if !dm.useColors {
		return text
	}

	colors := map[string]string{
		"primary": "\033[36m", // Cyan
		"success": "\033[32m", // Green
		"error":   "\033[31m", // Red
		"warning": "\033[33m", // Yellow
		"info":    "\033[34m", // Blue
	}
	color, ok := colors[kind]
	if !ok {
		color = colors["primary"]
	}
	return color + text + "\033[0m"
}

// FormatResult renders a value the way write() prints it
func (dm *DisplayManager) FormatResult(result interface{}) string {
	return shared.FormatValueForDisplay(result)
}

// ShowResult prints an evaluation result
func (dm *DisplayManager) ShowResult(result interface{}) {
	fmt.Fprintln(dm.out, dm.FormatResult(result))
}

// ShowInfo prints an informational line
func (dm *DisplayManager) ShowInfo(message string) {
	fmt.Fprintln(dm.out, dm.colorize(message, "info"))
}

// ShowError prints an error; execution errors show their source span
func (dm *DisplayManager) ShowError(err error) {
	if execErr, ok := errors.AsExecutionError(err); ok {
		message := fmt.Sprintf("Error [%s]: %s", execErr.Code, execErr.Message)
		if execErr.Span.IsKnown() {
			message += " at " + execErr.Span.String()
		}
		if execErr.Cause != nil {
			message += ": " + execErr.Cause.Error()
		}
		fmt.Fprintln(dm.out, dm.colorize(message, "error"))
		return
	}
	fmt.Fprintln(dm.out, dm.colorize("Error: "+err.Error(), "error"))
}

// ShowJobs prints the job table
func (dm *DisplayManager) ShowJobs(jobs []*jobmanager.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(dm.out, "No background jobs")
		return
	}
	for _, job := range jobs {
		fmt.Fprintln(dm.out, job.String())
	}
}

// ShowJobNotification prints a finished-job line
func (dm *DisplayManager) ShowJobNotification(n jobmanager.JobNotification) {
	switch n.Status {
	case jobmanager.StatusCompleted:
		fmt.Fprintln(dm.out, dm.colorize(fmt.Sprintf("[%d] done => %s", n.JobID, dm.FormatResult(n.Result)), "success"))
	case jobmanager.StatusFailed:
		fmt.Fprintln(dm.out, dm.colorize(fmt.Sprintf("[%d] failed: %v", n.JobID, n.Error), "error"))
	default:
		fmt.Fprintln(dm.out, dm.colorize(fmt.Sprintf("[%d] %s", n.JobID, n.Status), "warning"))
	}
}

// ShowChanges prints per-function differences between two units
func (dm *DisplayManager) ShowChanges(changes []serialization.FunctionChange) {
	if len(changes) == 0 {
		fmt.Fprintln(dm.out, "No changes")
		return
	}
	for _, change := range changes {
		marker := "~"
		kind := "warning"
		switch change.Kind {
		case serialization.FunctionAdded:
			marker, kind = "+", "success"
		case serialization.FunctionRemoved:
			marker, kind = "-", "error"
		}
		line := fmt.Sprintf("%s %s", marker, change.Name)
		if change.Kind == serialization.FunctionModified {
			line += fmt.Sprintf(" (%d operations)", change.Operations)
		}
		fmt.Fprintln(dm.out, dm.colorize(line, kind))
	}
}

// ShowWelcome prints the banner
func (dm *DisplayManager) ShowWelcome() {
	fmt.Fprintln(dm.out, dm.colorize("lama interpreter", "primary"))
	fmt.Fprintln(dm.out, "Type :help for commands, :quit to exit.")
	fmt.Fprintln(dm.out)
}

// ShowHelp displays the command reference
func (dm *DisplayManager) ShowHelp() {
	lines := []string{
		"Commands:",
		"  :load <file>             compile and register a unit (.yaml, .yml, .json)",
		"  :run [entry] [args]      evaluate the last loaded unit",
		"  :functions               list registered functions",
		"  :programs                list loaded units",
		"  :diff <old> <new>        compare the functions of two unit files",
		"  :jobs                    list background jobs",
		"  :wait <id>               wait for a background job",
		"  :cancel <id>             cancel a background job",
		"  :history                 show command history",
		"  :help                    this help",
		"  :quit                    exit",
		"",
		"Calls:",
		"  f(1, \"two\", {3, 4})      call a registered function, arguments are Lua expressions",
		"  f(30) &                  run the call as a background job",
	}
	fmt.Fprintln(dm.out, strings.Join(lines, "\n"))
}
