package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"spectral-signatures/utils"
)

type commandFunc func(ctx context.Context, cfg config, args []string, out io.Writer) error

var commands = map[string]commandFunc{
	"example":  runExample,
	"create":   runCreate,
	"template": runTemplate,
	"validate": runValidate,
	"compare":  runCompare,
	"similar":  runSimilar,
	"batch":    runBatch,
	"plot":     runPlot,
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown subcommand %q\n", name)
		usage(os.Stderr)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := cmd(ctx, loadConfig(), os.Args[2:], os.Stdout); err != nil {
		logger := utils.GetLogger()
		logger.ErrorContext(ctx, "command failed", slog.String("command", name), slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "Expected one of: %s\n", strings.Join(names, ", "))
}
