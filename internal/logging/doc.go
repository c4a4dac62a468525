// Package logging sets up structured logging for kbsearch.
//
// Logs are JSON lines written through log/slog. Interactive commands log
// warnings to stderr; with --debug, or in the stdio modes (serve, mcp),
// logs go to a rotating file under ~/.kbsearch/logs/ instead, so stdout
// stays reserved for the protocol stream. The Viewer reads that file back
// for `kbsearch logs`.
package logging
