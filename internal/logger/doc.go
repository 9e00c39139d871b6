// Package logger provides a zap-based logger shared by all binaries.
//
// A global sugared logger is configured at init time; contexts may carry
// a named logger (see WithName) so log lines identify the component that
// produced them.
package logger
