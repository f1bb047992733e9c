package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "skyrank"
	keyringPrefix  = "bluesky_"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := keyringPrefix + "test"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	key := keyringPrefix + account.Handle
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	// Update the account list
	return k.updateAccountList(account.Handle, true)
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(handle string) (*Account, error) {
	key := keyringPrefix + handle
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// List returns all accounts stored in the keychain
func (k *KeyringStore) List() ([]*Account, error) {
	listData, err := keyring.Get(keyringService, keyringPrefix+"_list")
	if err != nil {
		if err == keyring.ErrNotFound {
			return []*Account{}, nil
		}
		return nil, fmt.Errorf("failed to get account list: %w", err)
	}

	handles := strings.Split(listData, ",")
	var accounts []*Account

	for _, handle := range handles {
		if handle == "" {
			continue
		}
		account, err := k.Retrieve(handle)
		if err == nil {
			accounts = append(accounts, account)
		}
	}

	return accounts, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(handle string) error {
	key := keyringPrefix + handle
	if err := keyring.Delete(keyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return k.updateAccountList(handle, false)
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(handle string) bool {
	key := keyringPrefix + handle
	_, err := keyring.Get(keyringService, key)
	return err == nil
}

// updateAccountList maintains a list of handles for the List operation
func (k *KeyringStore) updateAccountList(handle string, add bool) error {
	listKey := keyringPrefix + "_list"
	listData, err := keyring.Get(keyringService, listKey)
	if err != nil && err != keyring.ErrNotFound {
		return err
	}

	handles := make(map[string]bool)
	if listData != "" {
		for _, h := range strings.Split(listData, ",") {
			if h != "" {
				handles[h] = true
			}
		}
	}

	if add {
		handles[handle] = true
	} else {
		delete(handles, handle)
	}

	var handleList []string
	for h := range handles {
		handleList = append(handleList, h)
	}

	return keyring.Set(keyringService, listKey, strings.Join(handleList, ","))
}
