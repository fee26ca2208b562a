// Package logging provides a unified logging interface for the coin flip
// simulator. It abstracts the underlying logging implementation, allowing
// consistent logging across the engine, the CLI and the HTTP server.
package logging
