// Package output provides structured errors, exit codes, and JSON output
// formatting with optional jq filtering.
package output

// Exit codes for the basecamp binary.
const (
	ExitOK            = 0 // Success
	ExitGeneric       = 1 // Unexpected or uncategorized failure
	ExitInvalidInput  = 2 // Invalid arguments, flags, or prompt input
	ExitOAuth         = 3 // OAuth / security failure
	ExitNoAccount     = 4 // No usable Basecamp account or resource
	ExitSecureStorage = 5 // Keyring or vault failure
)

// Error codes for the JSON envelope.
const (
	CodeGeneric       = "generic"
	CodeInvalidInput  = "invalid_input"
	CodeOAuth         = "oauth"
	CodeNoAccount     = "no_account"
	CodeSecureStorage = "secure_storage"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeInvalidInput:
		return ExitInvalidInput
	case CodeOAuth:
		return ExitOAuth
	case CodeNoAccount:
		return ExitNoAccount
	case CodeSecureStorage:
		return ExitSecureStorage
	default:
		return ExitGeneric
	}
}
