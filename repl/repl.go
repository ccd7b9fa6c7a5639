package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"lama/engine"
	"lama/errors"
	"lama/jobmanager"
	"lama/logging"
	"lama/runtime"
	"lama/runtime/lua"
	"lama/serialization"

	"github.com/chzyer/readline"
)

// REPL represents the Read-Eval-Print Loop over compiled units
type REPL struct {
	engine      *engine.ExecutionEngine
	jobs        *jobmanager.JobManager
	args        *lua.LuaBridge
	logger      logging.Logger
	display     *DisplayManager
	out         io.Writer
	in          io.Reader
	prompt      string
	historyFile string
	historySize int
	showWelcome bool
	loadOptions serialization.LoadOptions

	mu       sync.Mutex
	running  bool
	history  []string
	programs map[string]*engine.Program
	last     *engine.Program
}

// REPLConfig holds configuration options for the REPL
type REPLConfig struct {
	Engine            *engine.ExecutionEngine
	Logger            logging.Logger
	Prompt            string
	HistoryFile       string
	HistorySize       int
	ShowWelcome       bool
	EnableColors      bool
	MaxBackgroundJobs int
	LoadOptions       serialization.LoadOptions
	Output            io.Writer
	Input             io.Reader
}

var callPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\((.*)\)\s*(&)?$`)

// NewREPL creates a REPL with a fresh engine and default settings
func NewREPL() *REPL {
	return NewREPLWithConfig(REPLConfig{ShowWelcome: true})
}

// NewREPLWithConfig creates a new REPL instance with custom configuration
func NewREPLWithConfig(config REPLConfig) *REPL {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	eng := config.Engine
	if eng == nil {
		eng = engine.NewExecutionEngineWithConfig(engine.ExecutionEngineConfig{Logger: logger})
	}
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	in := config.Input
	if in == nil {
		in = os.Stdin
	}

	prompt := config.Prompt
	if prompt == "" {
		prompt = "> "
	}
	historyFile := config.HistoryFile
	if historyFile == "" {
		historyFile = "/tmp/lama_history"
	}
	historySize := config.HistorySize
	if historySize == 0 {
		historySize = 1000
	}

	return &REPL{
		engine:      eng,
		jobs:        jobmanager.NewJobManager(config.MaxBackgroundJobs, logger),
		args:        lua.NewLuaBridge(),
		logger:      logger.WithComponent("repl"),
		display:     NewDisplayManager(out, config.EnableColors),
		out:         out,
		in:          in,
		prompt:      prompt,
		historyFile: historyFile,
		historySize: historySize,
		showWelcome: config.ShowWelcome,
		loadOptions: config.LoadOptions,
		programs:    make(map[string]*engine.Program),
	}
}

// isInteractive checks if the REPL input is a terminal
func (r *REPL) isInteractive() bool {
	f, ok := r.in.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

// Run starts the REPL and blocks until :quit or end of input
func (r *REPL) Run() error {
	r.running = true
	defer r.Close()

	if r.showWelcome {
		r.display.ShowWelcome()
	}

	if r.isInteractive() {
		return r.runInteractive()
	}
	return r.runPiped()
}

func (r *REPL) runInteractive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt,
		HistoryFile:     r.historyFile,
		HistoryLimit:    r.historySize,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
		AutoComplete:    NewFunctionCompleter(r.engine.Registry()),
	})
	if err != nil {
		return errors.NewSystemError("READLINE_INIT_FAILED", fmt.Sprintf("failed to initialize readline: %v", err))
	}
	defer func() {
		if err := rl.Close(); err != nil {
			r.logger.Warn("failed to close readline", logging.ErrorField("error", err))
		}
	}()

	for r.running {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(input) == 0 {
					fmt.Fprintln(r.out, "\nGoodbye!")
					break
				}
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(r.out, "\nGoodbye!")
				break
			}
			return errors.NewSystemError("READ_ERROR", fmt.Sprintf("read error: %v", err))
		}

		r.processLine(input)
		r.checkAndPrintJobNotifications()
	}
	return nil
}

// runPiped reads commands line by line when stdin is not a terminal
func (r *REPL) runPiped() error {
	scanner := bufio.NewScanner(r.in)
	for r.running && scanner.Scan() {
		r.processLine(scanner.Text())
		r.checkAndPrintJobNotifications()
	}
	if err := scanner.Err(); err != nil {
		return errors.NewSystemError("READ_ERROR", fmt.Sprintf("read error: %v", err))
	}
	return nil
}

func (r *REPL) processLine(input string) {
	line := strings.TrimSpace(input)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	if err := r.ExecuteLine(line); err != nil {
		r.display.ShowError(err)
	}
}

// ExecuteLine runs one REPL command or call and prints its outcome
func (r *REPL) ExecuteLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	r.mu.Lock()
	r.history = append(r.history, line)
	if len(r.history) > r.historySize {
		r.history = r.history[len(r.history)-r.historySize:]
	}
	r.mu.Unlock()

	if strings.HasPrefix(line, ":") {
		return r.handleBuiltInCommand(line)
	}

	match := callPattern.FindStringSubmatch(line)
	if match == nil {
		return errors.NewValidationError("UNKNOWN_COMMAND",
			fmt.Sprintf("expected a call like f(1, 2) or a :command, got %q", line))
	}
	name, argExpr, background := match[1], match[2], match[3] == "&"

	args, err := r.args.EvalArguments(argExpr)
	if err != nil {
		return err
	}
	if background {
		return r.submitBackground(name, argExpr, args)
	}

	result, err := r.engine.Call(name, valuesToArgs(args)...)
	if err != nil {
		return err
	}
	r.display.ShowResult(result)
	return nil
}

func (r *REPL) submitBackground(name, argExpr string, args []runtime.Value) error {
	id, err := r.jobs.Submit(name, argExpr, func(ctx context.Context) (runtime.Value, error) {
		return r.engine.CallContext(ctx, name, valuesToArgs(args)...)
	})
	if err != nil {
		return err
	}
	r.display.ShowInfo(fmt.Sprintf("[%d] started %s(%s)", id, name, argExpr))
	return nil
}

func valuesToArgs(values []runtime.Value) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// handleBuiltInCommand processes :commands
func (r *REPL) handleBuiltInCommand(input string) error {
	fields := strings.Fields(input)
	command, params := fields[0], fields[1:]

	switch command {
	case ":quit", ":exit", ":q":
		r.running = false
		return nil
	case ":help", ":h":
		r.display.ShowHelp()
		return nil
	case ":load", ":l":
		if len(params) != 1 {
			return errors.NewValidationError("USAGE", "usage: :load <file>")
		}
		return r.loadFile(params[0])
	case ":run":
		return r.runLoaded(params)
	case ":functions", ":fn":
		r.printFunctions()
		return nil
	case ":programs":
		r.printPrograms()
		return nil
	case ":diff":
		if len(params) != 2 {
			return errors.NewValidationError("USAGE", "usage: :diff <old file> <new file>")
		}
		return r.diffFiles(params[0], params[1])
	case ":jobs":
		r.display.ShowJobs(r.jobs.ListJobs())
		return nil
	case ":wait":
		return r.waitJob(params)
	case ":cancel":
		return r.cancelJob(params)
	case ":history":
		for i, h := range r.GetHistory() {
			fmt.Fprintf(r.out, "%4d  %s\n", i+1, h)
		}
		return nil
	default:
		return errors.NewValidationError("UNKNOWN_COMMAND", fmt.Sprintf("unknown command %s, try :help", command))
	}
}

// loadFile compiles a unit document and registers its functions
func (r *REPL) loadFile(path string) error {
	unit, err := serialization.LoadUnitFile(path, r.loadOptions)
	if err != nil {
		return err
	}
	program, err := r.engine.Compile(unit)
	if err != nil {
		return err
	}
	fresh := r.engine.Register(program)

	r.mu.Lock()
	r.programs[program.Name()] = program
	r.last = program
	r.mu.Unlock()

	r.logger.Info("unit loaded", logging.StringField("unit", program.Name()), logging.BoolField("registered", fresh))
	r.display.ShowInfo(fmt.Sprintf("loaded %s: %s", program.Name(), strings.Join(program.Functions(), ", ")))
	return nil
}

// runLoaded evaluates the entry function of the last loaded unit; an
// optional first parameter overrides the entry name and the rest are
// Lua argument expressions.
func (r *REPL) runLoaded(params []string) error {
	r.mu.Lock()
	program := r.last
	r.mu.Unlock()
	if program == nil {
		return errors.NewValidationError("NO_PROGRAM", "no unit loaded, use :load <file> first")
	}

	entry := r.engine.EntryFunction()
	if len(params) > 0 {
		entry = params[0]
	}
	args, err := r.args.EvalArguments(strings.Join(params[min(1, len(params)):], " "))
	if err != nil {
		return err
	}

	result, err := r.engine.EvaluateEntry(program, entry, valuesToArgs(args)...)
	if err != nil {
		return err
	}
	r.display.ShowResult(result)
	return nil
}

func (r *REPL) diffFiles(oldPath, newPath string) error {
	before, err := serialization.ReadDocumentFile(oldPath, r.loadOptions)
	if err != nil {
		return err
	}
	after, err := serialization.ReadDocumentFile(newPath, r.loadOptions)
	if err != nil {
		return err
	}
	changes, err := serialization.DiffUnits(before, after)
	if err != nil {
		return err
	}
	r.display.ShowChanges(changes)
	return nil
}

func (r *REPL) printFunctions() {
	functions := r.engine.Registry().Functions()
	if len(functions) == 0 {
		fmt.Fprintln(r.out, "No functions registered")
		return
	}
	for _, fn := range functions {
		state := "defined"
		if !fn.IsDefined() {
			state = "undefined"
		}
		fmt.Fprintf(r.out, "  %-20s %s\n", fn.Name(), state)
	}
}

func (r *REPL) printPrograms() {
	r.mu.Lock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Fprintln(r.out, "No units loaded")
		return
	}
	for _, name := range names {
		r.mu.Lock()
		program := r.programs[name]
		r.mu.Unlock()
		fmt.Fprintf(r.out, "  %-20s %s\n", name, strings.Join(program.Functions(), ", "))
	}
}

func (r *REPL) waitJob(params []string) error {
	id, err := parseJobID(params)
	if err != nil {
		return err
	}
	job, err := r.jobs.Wait(context.Background(), id)
	if err != nil {
		return err
	}
	if job.Err() != nil {
		return job.Err()
	}
	r.display.ShowResult(job.Result())
	return nil
}

func (r *REPL) cancelJob(params []string) error {
	id, err := parseJobID(params)
	if err != nil {
		return err
	}
	if err := r.jobs.CancelJob(id); err != nil {
		return err
	}
	r.display.ShowInfo(fmt.Sprintf("[%d] cancelled", id))
	return nil
}

func parseJobID(params []string) (jobmanager.JobID, error) {
	var id jobmanager.JobID
	if len(params) != 1 {
		return 0, errors.NewValidationError("USAGE", "expected a job id")
	}
	if _, err := fmt.Sscanf(params[0], "%d", &id); err != nil {
		return 0, errors.NewValidationError("USAGE", fmt.Sprintf("invalid job id %q", params[0]))
	}
	return id, nil
}

// checkAndPrintJobNotifications drains finished-job notifications
func (r *REPL) checkAndPrintJobNotifications() {
	for {
		select {
		case notification := <-r.jobs.Notifications():
			r.display.ShowJobNotification(notification)
		default:
			return
		}
	}
}

// GetEngine returns the execution engine
func (r *REPL) GetEngine() *engine.ExecutionEngine {
	return r.engine
}

// GetJobManager returns the background job manager
func (r *REPL) GetJobManager() *jobmanager.JobManager {
	return r.jobs
}

// GetHistory returns a copy of the command history
func (r *REPL) GetHistory() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// IsRunning reports whether the loop is still accepting input
func (r *REPL) IsRunning() bool {
	return r.running
}

// Close stops background jobs and releases the Lua state
func (r *REPL) Close() {
	r.jobs.Shutdown()
	r.args.Close()
}
