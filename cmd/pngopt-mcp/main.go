package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ironsheep/pngopt-mcp/internal/bridge"
	"github.com/ironsheep/pngopt-mcp/internal/engine"
	"github.com/ironsheep/pngopt-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		engineName string
		oxipngPath string
		workers    int
		logLevel   string
	)

	flagSet := pflag.NewFlagSet("pngopt-mcp", pflag.ContinueOnError)
	flagSet.StringVar(&engineName, "engine", "native", "optimization engine: native or oxipng")
	flagSet.StringVar(&oxipngPath, "oxipng-path", "", "oxipng executable for --engine oxipng (default: oxipng on $PATH)")
	flagSet.IntVar(&workers, "workers", runtime.NumCPU(), "maximum concurrent background optimizations")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default: $PNGOPT_LOG_LEVEL or warn)")
	showVersion := flagSet.BoolP("version", "v", false, "print version information")
	showHelp := flagSet.BoolP("help", "h", false, "print this help message")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if *showVersion {
		fmt.Printf("pngopt-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return nil
	}
	if *showHelp {
		printHelp(flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	// Logs go to stderr; stdout carries the MCP protocol.
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}

	eng, err := selectEngine(engineName, oxipngPath)
	if err != nil {
		return err
	}

	pool := bridge.NewPool(workers)
	defer pool.Close()

	server.Version = Version
	logger.Info("starting", "version", Version, "commit", GitCommit, "engine", engineName, "workers", workers)

	srv := server.New(bridge.New(eng, pool), logger)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newLogger(level string) (*log.Logger, error) {
	if level == "" {
		level = os.Getenv("PNGOPT_LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "pngopt-mcp",
		Level:           lvl,
		ReportTimestamp: true,
	}), nil
}

func selectEngine(name, oxipngPath string) (engine.Engine, error) {
	switch name {
	case "native":
		return engine.NewNative(), nil
	case "oxipng":
		return engine.NewOxipng(oxipngPath), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want native or oxipng)", name)
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Println("pngopt-mcp - MCP server for lossless PNG optimization")
	fmt.Println()
	fmt.Println("Usage: pngopt-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Print(flagSet.FlagUsages())
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  PNGOPT_LOG_LEVEL=debug    Log level when --log-level is not given")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
