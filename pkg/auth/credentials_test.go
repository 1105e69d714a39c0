package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Name:          "main",
		SessionID:     "test_session_id_12345",
		WebhookSecret: "test_webhook_secret_67890",
		UserAgent:     "TestAgent/1.0",
		LastModified:  time.Now(),
	}

	err := manager.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("main")
	if err != nil {
		t.Errorf("Failed to retrieve account: %v", err)
	}

	if retrieved.Name != account.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, account.Name)
	}
	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch: got %s, want %s", retrieved.SessionID, account.SessionID)
	}
	if retrieved.WebhookSecret != account.WebhookSecret {
		t.Errorf("WebhookSecret mismatch: got %s, want %s", retrieved.WebhookSecret, account.WebhookSecret)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	sanitized := SanitizeAccount(account)
	if sanitized.SessionID == account.SessionID {
		t.Error("SessionID should be masked")
	}
	if sanitized.WebhookSecret == account.WebhookSecret {
		t.Error("WebhookSecret should be masked")
	}
	if sanitized.Name != account.Name {
		t.Error("Name should not be masked")
	}

	err = manager.Delete("main")
	if err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}

	_, err = manager.Retrieve("main")
	if err == nil {
		t.Error("Expected error retrieving deleted account")
	}

	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsIncompleteAccount(t *testing.T) {
	manager, _ := NewMockManager()

	if err := manager.Store(&Account{SessionID: "sid"}); err == nil {
		t.Error("Expected error for missing account name")
	}
	if err := manager.Store(&Account{Name: "main"}); err == nil {
		t.Error("Expected error for missing session ID")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	t.Setenv("TTMON_PASSPHRASE", "test_passphrase_123")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Name:          "encrypted_account",
		SessionID:     "encrypted_session",
		WebhookSecret: "encrypted_secret",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_account")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(fileContent, []byte("encrypted_session")) {
		t.Error("File contains plaintext session ID")
	}
	if bytes.Contains(fileContent, []byte("encrypted_secret")) {
		t.Error("File contains plaintext webhook secret")
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("TTMON_SESSION_ID", "env_session")
	t.Setenv("TTMON_WEBHOOK_SECRET", "env_secret")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if account.SessionID != "env_session" {
		t.Errorf("SessionID mismatch: got %s, want env_session", account.SessionID)
	}
	if account.WebhookSecret != "env_secret" {
		t.Errorf("WebhookSecret mismatch: got %s, want env_secret", account.WebhookSecret)
	}
	if account.Name != "default" {
		t.Errorf("Name mismatch: got %s, want default", account.Name)
	}

	err = store.Store(&Account{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestManagerWithEncryptedStore(t *testing.T) {
	tempDir := t.TempDir()

	t.Setenv("TTMON_PASSPHRASE", "test_passphrase_manager")

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "credentials.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewManagerWithStores(encryptedStore)

	account := &Account{
		Name:         "main",
		SessionID:    "real_session_id",
		UserAgent:    "RealAgent/1.0",
		LastModified: time.Now(),
	}

	err = manager.Store(account)
	if err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("Expected 1 account in list, got %d", len(accounts))
	}

	retrieved, err := manager.Retrieve("main")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}

	if retrieved.Name != account.Name {
		t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, account.Name)
	}
	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch: got %s, want %s", retrieved.SessionID, account.SessionID)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	account := &Account{
		Name:      "mock",
		SessionID: "mock_session",
	}

	err = store.Store(account)
	if err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}

	if !store.Exists("mock") {
		t.Error("Account should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
