package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

// RarStrategy extracts archives with the pure-Go rardecode library. It is
// always available and tried first.
type RarStrategy struct{}

func (RarStrategy) Name() string    { return "rardecode" }
func (RarStrategy) Available() bool { return true }

func (RarStrategy) Extract(ctx context.Context, archivePath, dest string) error {
	rc, err := rardecode.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open rar %s: %w", archivePath, err)
	}
	defer rc.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := rc.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read rar entry: %w", err)
		}

		target, err := entryPath(dest, hdr.Name)
		if err != nil {
			return err
		}
		if hdr.IsDir {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
			continue
		}
		if err := writeEntry(target, rc); err != nil {
			return err
		}
	}
}

// entryPath joins an archive entry name onto dest, rejecting names that
// would escape the workspace.
func entryPath(dest, name string) (string, error) {
	clean := filepath.FromSlash(name)
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("archive entry %q escapes extraction root", name)
	}
	return filepath.Join(dest, clean), nil
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", target, err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}
