// Command mcp-server-kube is a stdio MCP server over the local kubeconfig.
// It exposes the available contexts both as a list_kube_contexts tool and as
// the k8s://kube-contexts resource.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ntkjh80/mcp-study/kube"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/mcp/server"
)

func contextsJSON() (string, error) {
	contexts, err := kube.ListContexts()
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(contexts, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func main() {
	logger := logging.NewSlogLoggerTo(os.Stderr, logging.LogLevelInfo, "text", false)

	srv := server.New("k8s-pilot", func(o *server.Options) { o.Logger = logger })

	srv.RegisterTool(
		"list_kube_contexts",
		"Lists every context in the local kubeconfig with its cluster, user and whether it is current.",
		nil,
		func(ctx context.Context, _ map[string]any) (string, error) {
			return contextsJSON()
		},
	)

	srv.RegisterResource(
		"k8s://kube-contexts",
		"Kube Contexts",
		"application/json",
		func(ctx context.Context) (string, error) {
			return contextsJSON()
		},
	)

	if err := srv.Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
