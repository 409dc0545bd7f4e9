// Package startup handles service initialization: configuration loading
// from environment variables, directory validation, build information, and
// structured startup/shutdown logging.
package startup
