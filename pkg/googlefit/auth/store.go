package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/2beens/fitstats/pkg"

	"golang.org/x/oauth2"
)

var ErrNoToken = errors.New("no stored token")

// TokenStore persists OAuth tokens between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// FileTokenStore keeps a single JSON-serialized token in a file.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{
		path: path,
	}
}

func (s *FileTokenStore) Path() string {
	return s.path
}

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	exists, err := pkg.PathExists(s.path, false)
	if err != nil {
		return nil, fmt.Errorf("check token file: %w", err)
	}
	if !exists {
		return nil, ErrNoToken
	}

	tokenBytes, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenBytes, token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrNoToken
	}

	return token, nil
}

func (s *FileTokenStore) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("token is nil")
	}

	tokenBytes, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}

	if err := os.WriteFile(s.path, tokenBytes, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	return nil
}
