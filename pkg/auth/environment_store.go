package auth

import (
	"errors"
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It reads BLUESKY_HANDLE and BLUESKY_PASSWORD, and is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return errors.New("cannot store credentials in environment variables")
}

// Retrieve gets credentials from environment variables. An empty handle
// returns whatever account the environment describes.
func (e *EnvironmentStore) Retrieve(handle string) (*Account, error) {
	envHandle := os.Getenv("BLUESKY_HANDLE")
	envPassword := os.Getenv("BLUESKY_PASSWORD")

	if envHandle == "" || envPassword == "" {
		return nil, ErrCredentialsNotFound
	}

	if handle != "" && envHandle != handle {
		return nil, ErrCredentialsNotFound
	}

	account := &Account{
		Handle:       envHandle,
		AppPassword:  envPassword,
		PDSHost:      os.Getenv("SKYRANK_PDS_HOST"),
		LastModified: time.Now(),
	}

	return account, nil
}

// List returns the account from environment variables if present
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(handle string) error {
	return errors.New("cannot delete credentials from environment variables")
}

// Exists checks if credentials exist in environment variables
func (e *EnvironmentStore) Exists(handle string) bool {
	_, err := e.Retrieve(handle)
	return err == nil
}
