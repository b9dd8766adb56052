// Package mcp implements a Model Context Protocol (MCP) client: JSON-RPC 2.0
// over line-framed stdio subprocesses or streamable HTTP endpoints.
//
// The primary purpose is to surface remote MCP server tools and resources so
// they can be adapted into agent tools. MultiClient aggregates several
// configured servers behind one tool listing.
package mcp
