package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/rshade/tripcarbon/internal/wizard"
)

// FileStore writes one JSON document per session into a directory. Writes
// go to a temporary file that is renamed over the target, so readers never
// see a partial document.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(id string) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, id+".json"), nil
}

// Save implements Store.
func (f *FileStore) Save(ctx context.Context, state wizard.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.path(state.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", state.ID, err)
	}

	tmp, err := os.CreateTemp(f.dir, state.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session %s: %w", state.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("saving session %s: %w", state.ID, err)
	}
	return nil
}

// Load implements Store.
func (f *FileStore) Load(ctx context.Context, id string) (wizard.State, error) {
	if err := ctx.Err(); err != nil {
		return wizard.State{}, err
	}
	target, err := f.path(id)
	if err != nil {
		return wizard.State{}, err
	}

	data, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return wizard.State{}, ErrNotFound
	}
	if err != nil {
		return wizard.State{}, fmt.Errorf("reading session %s: %w", id, err)
	}

	var state wizard.State
	if err := json.Unmarshal(data, &state); err != nil {
		return wizard.State{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	state.ID = id
	return state, nil
}

// Delete implements Store.
func (f *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := f.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(target)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// Close implements Store. It is a no-op.
func (f *FileStore) Close() error { return nil }
