// Command mcp-study runs the MCP tool assistant, either behind the local web
// chat UI (default) or as a one-shot query from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ntkjh80/mcp-study"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/model/ollama"
	"github.com/ntkjh80/mcp-study/webui"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", mcpstudy.DefaultConfigPath, "Path to the MCP server config file")
		modelName  = flag.String("model", "", "Ollama model name (overrides the default)")
		ollamaHost = flag.String("ollama-host", "", "Ollama base URL (overrides OLLAMA_HOST)")
		addr       = flag.String("addr", webui.DefaultAddr, "Web UI listen address")
		query      = flag.String("query", "", "Run a single query and exit instead of serving the web UI")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := logging.LogLevelInfo
	if *verbose {
		level = logging.LogLevelDebug
	}
	logger := logging.NewSlogLoggerTo(os.Stderr, level, "text", false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buildStudy := func(ctx context.Context) (*mcpstudy.Study, error) {
		return mcpstudy.New(ctx, func(o *mcpstudy.Options) {
			o.ConfigPath = *configPath
			o.Logger = logger
			o.Model = ollama.NewModel(func(mo *ollama.Options) {
				if *modelName != "" {
					mo.Model = *modelName
				}
				if *ollamaHost != "" {
					mo.BaseURL = *ollamaHost
				}
			})
		})
	}

	if *query != "" {
		if err := runOnce(ctx, buildStudy, *query); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	srv := webui.New(func(ctx context.Context) (*webui.InitResult, error) {
		study, err := buildStudy(ctx)
		if err != nil {
			return nil, err
		}
		return &webui.InitResult{
			Runner:  study.Runner(),
			Tools:   study.Tools(),
			Cleanup: study.Close,
		}, nil
	}, func(o *webui.Options) {
		o.Addr = *addr
		o.Logger = logger
	})

	logger.Info("starting web ui", "addr", *addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, build func(context.Context) (*mcpstudy.Study, error), query string) error {
	study, err := build(ctx)
	if err != nil {
		return err
	}
	defer study.Close()

	answer, err := study.Ask(ctx, "cli", query)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
