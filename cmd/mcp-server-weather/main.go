// Command mcp-server-weather is a stdio MCP server exposing a get_weather
// tool. It serves canned responses for a few cities; wiring a real weather
// API would replace the lookup table with an HTTP call.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/mcp/server"
)

var cannedWeather = map[string]string{
	"seoul":  "The weather in Seoul is clear with a temperature of 25 degrees.",
	"suwon":  "The weather in Suwon is partly cloudy with a temperature of 23 degrees.",
	"london": "The weather in London is rainy with a temperature of 15 degrees.",
}

func getWeather(_ context.Context, args map[string]any) (string, error) {
	location, _ := args["location"].(string)
	if location == "" {
		return "Error: a location is required.", nil
	}
	if report, ok := cannedWeather[strings.ToLower(location)]; ok {
		return report, nil
	}
	return fmt.Sprintf("No weather information found for %s. Check the city name.", location), nil
}

func main() {
	logger := logging.NewSlogLoggerTo(os.Stderr, logging.LogLevelInfo, "text", false)

	srv := server.New("Weather", func(o *server.Options) { o.Logger = logger })
	srv.RegisterTool(
		"get_weather",
		"Returns the current weather for the given location.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "City name, e.g. 'Seoul'",
				},
			},
			"required": []any{"location"},
		},
		getWeather,
	)

	if err := srv.Serve(context.Background(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
