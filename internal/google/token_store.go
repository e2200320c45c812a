package google

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned by TokenStore.Load when no token has been stored
// for the account.
var ErrNoToken = errors.New("no stored token")

// TokenStore persists OAuth tokens between runs.
type TokenStore interface {
	// Load returns the stored token for the account. The error wraps
	// ErrNoToken when none exists.
	Load(ctx context.Context, account string) (*oauth2.Token, error)

	// Save persists the token for the account, replacing any previous one.
	Save(ctx context.Context, account string, token *oauth2.Token) error
}

// FileTokenStore keeps tokens as JSON files on disk. The default account
// uses the configured path verbatim; other accounts get the account name
// appended to the file stem, e.g. token.json becomes token-work.json.
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore creates a file-backed token store rooted at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) tokenPath(account string) (string, error) {
	if err := validateAccountName(account); err != nil {
		return "", err
	}
	if account == DefaultAccount {
		return s.path, nil
	}
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + "-" + account + ext, nil
}

// Load reads the token file for the account.
func (s *FileTokenStore) Load(ctx context.Context, account string) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.tokenPath(account)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for account %q", ErrNoToken, account)
		}
		return nil, fmt.Errorf("opening token file %s: %w", path, err)
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decoding token file %s: %w", path, err)
	}
	return token, nil
}

// Save writes the token file for the account with owner-only permissions.
func (s *FileTokenStore) Save(ctx context.Context, account string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.tokenPath(account)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating token directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating token file %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encoding token file %s: %w", path, err)
	}
	return nil
}

// SQLiteTokenStore keeps tokens in a local SQLite database, one row per
// account.
type SQLiteTokenStore struct {
	db *sql.DB
}

// NewSQLiteTokenStore opens (creating if necessary) the token database at
// path.
func NewSQLiteTokenStore(path string) (*SQLiteTokenStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening token database %s: %w", path, err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		account_name TEXT PRIMARY KEY,
		token TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing token database %s: %w", path, err)
	}

	return &SQLiteTokenStore{db: db}, nil
}

// Load reads the token row for the account.
func (s *SQLiteTokenStore) Load(ctx context.Context, account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	var tokenJSON []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT token FROM tokens WHERE account_name = ?", account).Scan(&tokenJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for account %q", ErrNoToken, account)
		}
		return nil, fmt.Errorf("querying token for account %q: %w", account, err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenJSON, token); err != nil {
		return nil, fmt.Errorf("decoding token for account %q: %w", account, err)
	}
	return token, nil
}

// Save upserts the token row for the account.
func (s *SQLiteTokenStore) Save(ctx context.Context, account string, token *oauth2.Token) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token for account %q: %w", account, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", account, tokenJSON)
	if err != nil {
		return fmt.Errorf("storing token for account %q: %w", account, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteTokenStore) Close() error {
	return s.db.Close()
}
