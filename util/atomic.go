package util

import (
	"io/ioutil"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes a file by calling write on a temporary file in the
// destination directory and renaming it over path on success. On any error
// the temporary file is removed and path is left untouched.
func WriteFileAtomic(path string, write func(w *os.File) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			// os.Remove returns an error if we try to remove a file that isn't there.
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
