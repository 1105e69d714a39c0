package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// Read-only; useful for containers and CI.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	sessionID := os.Getenv("TTMON_SESSION_ID")
	webhookSecret := os.Getenv("TTMON_WEBHOOK_SECRET")
	userAgent := os.Getenv("TTMON_USER_AGENT")

	if sessionID == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables don't carry an account name
	if name == "" {
		name = "default"
	}

	return &Account{
		Name:          name,
		SessionID:     sessionID,
		WebhookSecret: webhookSecret,
		UserAgent:     userAgent,
		LastModified:  time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("TTMON_SESSION_ID") != ""
}
