package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	sentrypkg "github.com/kastheco/testsmith/internal/sentry"
)

var (
	WarningLog = log.New(io.Discard, "WARNING:", log.Ldate|log.Ltime|log.Lshortfile)
	InfoLog    = log.New(io.Discard, "INFO:", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog   = log.New(io.Discard, "ERROR:", log.Ldate|log.Ltime|log.Lshortfile)
)

var logFileName = filepath.Join(os.TempDir(), "testsmith.log")

var globalLogFile *os.File

// Initialize should be called once at the beginning of the program to set up
// logging. defer Close() after calling this function. The TUI owns stdout, so
// all output goes to a file in the os temp directory. When telemetry is on,
// warnings and errors are also forwarded to Sentry.
func Initialize(telemetry ...bool) {
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		panic(fmt.Sprintf("could not open log file: %s", err))
	}

	forward := len(telemetry) > 0 && telemetry[0]

	var warnOut, errOut io.Writer = f, f
	if forward {
		warnOut = sentrypkg.NewWriter(f, sentrypkg.LevelWarning)
		errOut = sentrypkg.NewWriter(f, sentrypkg.LevelError)
	}

	InfoLog = log.New(f, "INFO:", log.Ldate|log.Ltime|log.Lshortfile)
	WarningLog = log.New(warnOut, "WARNING:", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog = log.New(errOut, "ERROR:", log.Ldate|log.Ltime|log.Lshortfile)

	globalLogFile = f
}

// Close flushes and closes the log file. Safe to call without Initialize.
func Close() {
	if globalLogFile == nil {
		return
	}
	_ = globalLogFile.Close()
	globalLogFile = nil
}

// FileName returns the path of the log file.
func FileName() string {
	return logFileName
}
