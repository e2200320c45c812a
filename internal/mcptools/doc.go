// Package mcptools exposes the calendar actions as MCP (Model Context
// Protocol) tools so AI assistants can invoke them over stdio.
//
// The tools are thin adapters: tool arguments are mapped onto tracker slots
// and the shared actions run unchanged, so time formats, conflict rules and
// reply texts stay identical to the webhook transport.
package mcptools
