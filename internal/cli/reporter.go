package cli

import (
	"fmt"
	"os"
)

// printError writes a one-line error message to stderr. Every keyvault
// operation is effectively instantaneous (a handful of PBKDF2 passes at
// most), so unlike a file-encryption tool there is no long-running
// progress to report — only a final success or failure line.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// printSuccess writes a one-line confirmation to stderr, leaving stdout
// free for structured command output (ids, secrets, JSON).
func printSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
