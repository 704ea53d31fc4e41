package meiliutil

import (
	"os"

	"github.com/pkg/errors"
)

// Wrapper of a temporary file. The file is removed on Close unless it was
// kept with Keep. It is used for the archives that are written under a
// temporary name and renamed into place once complete.
type SelfDestructFileWrapper struct {
	file *os.File
	kept bool
}

// Creates a temporary file in the directory using the pattern, see
// os.CreateTemp.
func NewSelfDestructTempFile(dir, pattern string) (*SelfDestructFileWrapper, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create a temporary file in %s", dir)
	}
	return &SelfDestructFileWrapper{file: file}, nil
}

// Returns the current path of the file.
func (w *SelfDestructFileWrapper) Name() string {
	return w.file.Name()
}

func (w *SelfDestructFileWrapper) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

// Syncs the content, closes the file and moves it to the target path. The
// file is no longer removed on Close after a successful call.
func (w *SelfDestructFileWrapper) Keep(target string) error {
	if err := w.file.Sync(); err != nil {
		return errors.Wrapf(err, "cannot sync %s", w.file.Name())
	}
	if err := w.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return errors.Wrapf(err, "cannot close %s", w.file.Name())
	}
	if err := os.Rename(w.file.Name(), target); err != nil {
		return errors.Wrapf(err, "cannot move %s to %s", w.file.Name(), target)
	}
	w.kept = true
	return nil
}

// Closes the file and removes it unless it was kept.
func (w *SelfDestructFileWrapper) Close() error {
	closeErr := w.file.Close()
	if w.kept {
		return nil
	}
	if err := os.Remove(w.file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "cannot remove %s", w.file.Name())
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return errors.WithStack(closeErr)
	}
	return nil
}
