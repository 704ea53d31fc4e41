package meiliutil

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Writes a gzip-compressed TAR archive. The owner is responsible for
// calling Close to flush the compressed stream.
type TarballWriter struct {
	gzipWriter *gzip.Writer
	tarWriter  *tar.Writer
}

// Constructs a new tarball writer on top of the target writer. Returns nil
// if the target is nil.
func NewTarballWriter(target io.Writer) *TarballWriter {
	if target == nil {
		return nil
	}
	gzipWriter := gzip.NewWriter(target)
	return &TarballWriter{
		gzipWriter: gzipWriter,
		tarWriter:  tar.NewWriter(gzipWriter),
	}
}

// Adds the whole content of the root directory. The paths inside the
// archive are relative to the root and use forward slashes.
func (t *TarballWriter) AddDirectory(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "cannot walk through %s", path)
		}
		if path == root {
			return nil
		}

		relative, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Wrapf(err, "cannot compute the archive path of %s", path)
		}

		info, err := entry.Info()
		if err != nil {
			return errors.Wrapf(err, "cannot stat %s", path)
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return errors.Wrap(err, "could not create a TAR header")
		}
		header.Name = filepath.ToSlash(relative)

		if entry.IsDir() {
			header.Name += "/"
			return errors.Wrap(t.tarWriter.WriteHeader(header), "could not write header to TAR archive")
		}
		if !info.Mode().IsRegular() {
			// Sockets, links and the like are not part of a dump.
			return nil
		}
		return t.addFile(header, path)
	})
}

// Writes the header and copies the file content into the archive.
func (t *TarballWriter) addFile(header *tar.Header, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open the file")
	}
	defer file.Close()

	if err = t.tarWriter.WriteHeader(header); err != nil {
		return errors.Wrap(err, "could not write header to TAR archive")
	}
	_, err = io.Copy(t.tarWriter, file)
	return errors.Wrap(err, "could not add the file to TAR archive")
}

// Flushes and closes the internal writers.
func (t *TarballWriter) Close() error {
	tarErr := t.tarWriter.Close()
	gzipErr := t.gzipWriter.Close()
	if tarErr != nil {
		return errors.Wrap(tarErr, "could not close the TAR archive")
	}
	return errors.Wrap(gzipErr, "could not close the GZIP stream")
}
