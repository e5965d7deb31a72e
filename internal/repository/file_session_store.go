package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hitoshi/leadman/internal/model"
)

// FileSessionStore はJSONファイルにセッションを保存するストア。
// 一時ファイルへの書き込みとリネームにより、トークンとユーザーを不可分に置き換える。
type FileSessionStore struct {
	path string
}

// NewFileSessionStore はFileSessionStoreを生成する。
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Path は保存先のファイルパスを返す。
func (s *FileSessionStore) Path() string {
	return s.path
}

// Load はセッションファイルを読み込む。ファイルが存在しない場合はnilを返す。
func (s *FileSessionStore) Load(_ context.Context) (*model.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if sess.Token == "" && sess.User.ID == "" {
		return nil, nil
	}
	if !sess.Valid() {
		return nil, fmt.Errorf("%w: token or user missing", ErrCorruptSession)
	}
	return &sess, nil
}

// Save はセッションをファイルに書き込む。ファイルのパーミッションは0600。
func (s *FileSessionStore) Save(_ context.Context, session *model.Session) error {
	if !session.Valid() {
		return fmt.Errorf("refusing to save incomplete session")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear はセッションファイルを削除する。
func (s *FileSessionStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

var _ SessionStore = (*FileSessionStore)(nil)
