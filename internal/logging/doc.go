// Package logging provides file-based logging with rotation.
// Logs are always written to ~/.filesearch/logs/ and, with the default
// configuration, copied to stderr as well.
//
// The --debug flag lowers the minimum level from info to debug; it does
// not change where logs are written.
package logging
