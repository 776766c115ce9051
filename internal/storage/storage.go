package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/keyring"
	"github.com/julianstephens/studyloop/internal/storage/postgres"
	"github.com/julianstephens/studyloop/internal/storage/sqlite"
)

// KeyringTarget selects the PostgreSQL connection string stored in the OS keyring.
const KeyringTarget = "keyring"

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
)

// ErrEmbeddedCredentials is returned for PostgreSQL targets that carry a password.
var ErrEmbeddedCredentials = errors.New("PostgreSQL connection strings with embedded credentials are not allowed; store them with 'studyloop keyring set' and pass --config=keyring")

// HasEmbeddedCredentials reports whether a PostgreSQL connection string contains a password.
func HasEmbeddedCredentials(connStr string) bool {
	_, err := postgres.ValidateConnString(connStr)
	return errors.Is(err, postgres.ErrEmbeddedCredentials)
}

// New picks the backend for target: "keyring", a postgres:// URL, or a SQLite file path.
func New(target string) (Provider, error) {
	switch {
	case target == KeyringTarget:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to read connection string: %w", err)
		}
		return postgres.New(connStr), nil
	case postgres.IsConnString(target):
		if HasEmbeddedCredentials(target) {
			return nil, ErrEmbeddedCredentials
		}
		return postgres.New(target), nil
	default:
		path, err := ExpandPath(target)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}

// ExpandPath resolves a leading "~" and falls back to the default database path.
func ExpandPath(path string) (string, error) {
	if path == "" {
		path = constants.DefaultConfigPath
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
