package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vanilla/internal/interp"
	"vanilla/internal/repl"
	"vanilla/internal/util"
)

var (
	// Version is stamped by the build.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath string
	debugAST   bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Print the parsed AST to stderr before running")
	flag.StringVar(&configPath, "config", "", "Config file path (default ~/.vanilla/config.toml)")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(logLevel),
	}
	logWriter := configureLogWriter()
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	if version {
		printVersion()
		return
	}

	if help {
		printHelp()
		return
	}

	config := util.Configuration{
		Version:   Version,
		BuildDate: BuildDate,
		Commit:    Commit,
		DebugAST:  debugAST,
	}
	path := configPath
	if path == "" {
		path = util.DefaultConfigPath()
	}
	if err := util.LoadConfig(path, &config); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		fmt.Printf("Vanilla v%s\n", Version)
		repl.Start(os.Stdin, os.Stdout, config)
		return
	}

	if err := runFile(flag.Arg(0), config); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func runFile(filename string, config util.Configuration) error {
	source, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}

	program, err := interp.Compile(string(source))
	if err != nil {
		return err
	}
	if config.DebugAST {
		fmt.Fprint(os.Stderr, program.AST.String())
	}

	_, err = program.Run(os.Stdout)
	return err
}

func configureLogWriter() *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("vanilla version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: vanilla [options] [filename]

Options:
  -config <path>     Config file path. Default is ~/.vanilla/config.toml.
  -debug-ast         Print the parsed AST to stderr before running.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
This is the Vanilla programming language. Run a file by name, or start with
no arguments for an interactive session.

Examples:
  vanilla                       Start an interactive session
  vanilla myfile.vanilla        Execute the provided Vanilla file
  vanilla -debug-ast my.vanilla Show the AST, then execute

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
