package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	saltSize         = 32
	keySize          = 32
)

// EncryptedFileStore implements CredentialStore using an encrypted file
type EncryptedFileStore struct {
	filePath   string
	passphrase []byte
}

type encryptedFile struct {
	Version  int                 `json:"version"`
	Salt     []byte              `json:"salt"`
	Data     []byte              `json:"data"`
	Modified time.Time           `json:"modified"`
	Accounts map[string]*Account `json:"-"`
}

// NewEncryptedFileStore creates a new encrypted file-based credential store
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	passphrase, err := getPassphrase(filepath.Dir(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{
		filePath:   filePath,
		passphrase: passphrase,
	}, nil
}

// Store saves credentials to the encrypted file
func (e *EncryptedFileStore) Store(account *Account) error {
	accounts, err := e.loadAccounts()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if accounts == nil {
		accounts = make(map[string]*Account)
	}

	accounts[account.Handle] = account

	return e.saveAccounts(accounts)
}

// Retrieve gets credentials from the encrypted file
func (e *EncryptedFileStore) Retrieve(handle string) (*Account, error) {
	accounts, err := e.loadAccounts()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	account, ok := accounts[handle]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	return account, nil
}

// List returns all accounts from the encrypted file
func (e *EncryptedFileStore) List() ([]*Account, error) {
	accounts, err := e.loadAccounts()
	if err != nil {
		if os.IsNotExist(err) {
			return []*Account{}, nil
		}
		return nil, err
	}

	var result []*Account
	for _, account := range accounts {
		result = append(result, account)
	}

	return result, nil
}

// Delete removes credentials from the encrypted file
func (e *EncryptedFileStore) Delete(handle string) error {
	accounts, err := e.loadAccounts()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return err
	}

	if _, ok := accounts[handle]; !ok {
		return ErrCredentialsNotFound
	}

	delete(accounts, handle)

	return e.saveAccounts(accounts)
}

// Exists checks if credentials exist in the encrypted file
func (e *EncryptedFileStore) Exists(handle string) bool {
	accounts, err := e.loadAccounts()
	if err != nil {
		return false
	}
	_, ok := accounts[handle]
	return ok
}

func (e *EncryptedFileStore) loadAccounts() (map[string]*Account, error) {
	data, err := os.ReadFile(e.filePath)
	if err != nil {
		return nil, err
	}

	var file encryptedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	key := pbkdf2.Key(e.passphrase, file.Salt, pbkdf2Iterations, keySize, sha256.New)

	plaintext, err := decrypt(file.Data, key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var accounts map[string]*Account
	if err := json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}

	return accounts, nil
}

func (e *EncryptedFileStore) saveAccounts(accounts map[string]*Account) error {
	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key(e.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)

	ciphertext, err := encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	file := encryptedFile{
		Version:  1,
		Salt:     salt,
		Data:     ciphertext,
		Modified: time.Now(),
	}

	data, err := json.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	// Write to a temp file first, then rename
	tempFile := e.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := os.Rename(tempFile, e.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save credentials file: %w", err)
	}

	return nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertext = ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertext, nil)
}

// getPassphrase retrieves or generates the encryption passphrase
func getPassphrase(configDir string) ([]byte, error) {
	// Check environment first
	if passphrase := os.Getenv("SKYRANK_PASSPHRASE"); passphrase != "" {
		return []byte(passphrase), nil
	}

	// Check for a passphrase file
	passphraseFile := filepath.Join(configDir, ".passphrase")
	if data, err := os.ReadFile(passphraseFile); err == nil && len(data) > 0 {
		return data, nil
	}

	// Generate a new passphrase
	passphrase := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, passphrase); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(passphraseFile, passphrase, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}

	return passphrase, nil
}
