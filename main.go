package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"lama/engine"
	"lama/repl"
	"lama/runtime"
	"lama/runtime/lua"
	"lama/serialization"
)

const version = "lama v0.1.0"

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		execFile    = flag.String("exec", "", "Evaluate a unit file in batch mode")
		entry       = flag.String("entry", "", "Entry function for -exec (default from config, then main)")
		luaArgs     = flag.String("lua-args", "", "Entry arguments as a Lua expression list, e.g. '1, \"x\", {2, 3}'")
		bytesArg    = flag.String("bytes-arg", "", "Append the contents of a file as a byte array argument")
		patchFile   = flag.String("patch", "", "JSON patch or merge patch applied to the unit before compiling")
		diff        = flag.Bool("diff", false, "Compare the functions of two unit files given as arguments")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := LoadConfig(resolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		os.Exit(1)
	}

	if *diff {
		args := flag.Args()
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: lama -diff <old unit> <new unit>")
			os.Exit(2)
		}
		if _, err := DiffMode(cfg, args[0], args[1], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	unitPath := *execFile
	if unitPath == "" && flag.NArg() > 0 {
		unitPath = flag.Arg(0)
	}
	if unitPath != "" {
		_, err := BatchMode(cfg, logger, BatchOptions{
			UnitPath:  unitPath,
			Entry:     *entry,
			LuaArgs:   *luaArgs,
			BytesArg:  *bytesArg,
			PatchPath: *patchFile,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	eng := engine.NewExecutionEngineWithConfig(engine.ExecutionEngineConfig{
		Logger:          logger,
		EntryFunction:   cfg.Engine.EntryFunction,
		TraceStatements: cfg.Engine.TraceStatements,
		Converters:      []runtime.ForeignConverter{lua.Converter},
	})

	r := repl.NewREPLWithConfig(repl.REPLConfig{
		Engine:            eng,
		Logger:            logger,
		Prompt:            cfg.REPL.Prompt,
		HistoryFile:       cfg.REPL.HistoryFile,
		HistorySize:       cfg.REPL.HistorySize,
		ShowWelcome:       cfg.REPL.ShowWelcome,
		EnableColors:      true,
		MaxBackgroundJobs: cfg.Engine.MaxBackgroundJobs,
		LoadOptions:       serialization.LoadOptions{Validate: cfg.Units.ValidateSchema},
	})

	if err := r.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigPath falls back to the default locations when no -config
// flag is given
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	for _, candidate := range []string{
		filepath.Join(home, ".lama", "config.yaml"),
		"./lama.yaml",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func printHelp() {
	fmt.Println(version)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lama                                  start the interactive shell")
	fmt.Println("  lama -exec unit.yaml [flags]          evaluate the entry function of a unit")
	fmt.Println("  lama unit.json                        same as -exec")
	fmt.Println("  lama -diff old.yaml new.yaml          list functions that differ between two units")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
