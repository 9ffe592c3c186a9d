package shared

import "fmt"

var (
	// Credential store errors
	ErrNoCredentials      = fmt.Errorf("no stored credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed        = fmt.Errorf("authentication failed")
	ErrUnauthorized      = fmt.Errorf("unauthorized")
	ErrTwoFactorRequired = fmt.Errorf("verification code required")

	// API and server errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrNotFound          = fmt.Errorf("not found")
	ErrServerUnreachable = fmt.Errorf("server unreachable")

	// Selection and input errors
	ErrNoMatch         = fmt.Errorf("nothing matched")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrMissingArgument = fmt.Errorf("missing required argument")

	// Run outcomes
	ErrAborted        = fmt.Errorf("aborted")
	ErrPartialFailure = fmt.Errorf("completed with failures")

	// Storage errors
	ErrDatabase = fmt.Errorf("database error")
)
