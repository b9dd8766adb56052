// Command mcp-server-time is a stdio MCP server exposing a single
// get_current_time tool. Timezone names follow the IANA database; the default
// is Asia/Seoul.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/mcp/server"
)

const defaultTimezone = "Asia/Seoul"

func getCurrentTime(_ context.Context, args map[string]any) (string, error) {
	tzName := defaultTimezone
	if v, ok := args["timezone"].(string); ok && v != "" {
		tzName = v
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		// Report bad input as a tool result so the model can correct itself.
		return fmt.Sprintf("Error: unknown timezone %q. Use an IANA name such as 'America/New_York'.", tzName), nil
	}

	now := time.Now().In(loc)
	return fmt.Sprintf("The current time in %s is %s.", tzName, now.Format("2006-01-02 15:04:05 MST")), nil
}

func main() {
	logger := logging.NewSlogLoggerTo(os.Stderr, logging.LogLevelInfo, "text", false)

	srv := server.New("TimeService", func(o *server.Options) { o.Logger = logger })
	srv.RegisterTool(
		"get_current_time",
		"Returns the current time in the given IANA timezone. Defaults to Asia/Seoul.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"timezone": map[string]any{
					"type":        "string",
					"description": "IANA timezone name, e.g. 'America/New_York'",
				},
			},
		},
		getCurrentTime,
	)

	if err := srv.Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
