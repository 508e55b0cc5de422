// keyvault is a local, password-protected store for API credentials.
//
// It caches no plaintext on disk: every secret is sealed under AES-256-GCM
// with a key derived from the vault's master password via PBKDF2-HMAC-
// SHA-256, and the engine's only sensitive in-memory state — the cached
// derived key — exists for the lifetime of an unlocked session.
package main

import (
	"os"

	"keyvault/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
