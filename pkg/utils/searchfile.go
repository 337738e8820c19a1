package utils

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrSearchFile = errors.New("could not search file")

// SearchFilePathtoUpward finds a regular file named fileName in root or its ancestors.
//
// It returns the path of the nearest one, or ErrSearchFile if nothing is found.
func SearchFilePathtoUpward(root string, fileName string) (*string, error) {
	for dir := root; ; {
		path := filepath.Join(dir, fileName)
		if s, err := os.Stat(path); err == nil && s.Mode().IsRegular() {
			return &path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrSearchFile
		}
		dir = parent
	}
}
