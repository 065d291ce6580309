// Package internal holds process-level bootstrap helpers for the
// trip-router binary.
package internal

import (
	"log"
	"os"
)

// InitLogging routes the standard logger to stdout and stamps every line
// with a microsecond timestamp.
func InitLogging() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
