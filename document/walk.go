package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// specExtensions is the closed set of file extensions treated as
// specification documents.
var specExtensions = map[string]bool{
	"md":     true,
	"mdspec": true,
}

// VisitSpecificationFiles walks path, recursing into directories and through
// symbolic links, and calls visit for every regular file whose extension
// marks it as a specification document. Emission order is the filesystem's.
func VisitSpecificationFiles(path string, visit func(path string) error) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("walk %s: %w", path, err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return fmt.Errorf("resolve link %s: %w", path, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		return VisitSpecificationFiles(target, visit)

	case info.IsDir():
		entries, err := os.ReadDir(path)
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		for _, entry := range entries {
			if err := VisitSpecificationFiles(filepath.Join(path, entry.Name()), visit); err != nil {
				return err
			}
		}
		return nil

	case info.Mode().IsRegular():
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if specExtensions[ext] {
			return visit(path)
		}
		return nil
	}

	return nil
}
