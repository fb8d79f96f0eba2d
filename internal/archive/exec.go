package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// CommandStrategy extracts archives by invoking an external extractor binary.
// Availability is a PATH lookup; an absent binary makes the strategy skipped,
// not failed.
type CommandStrategy struct {
	name string
	bin  string
	args func(archivePath, dest string) []string
}

// NewUnrarStrategy invokes the unrar command-line tool.
func NewUnrarStrategy() *CommandStrategy {
	return &CommandStrategy{
		name: "unrar",
		bin:  "unrar",
		args: func(archivePath, dest string) []string {
			return []string{"x", "-y", archivePath, dest + string(os.PathSeparator)}
		},
	}
}

// NewSevenZipStrategy invokes 7z, which handles rar archives when the host
// has the rar codec module installed.
func NewSevenZipStrategy() *CommandStrategy {
	return &CommandStrategy{
		name: "7z",
		bin:  "7z",
		args: func(archivePath, dest string) []string {
			return []string{"x", "-y", "-o" + dest, archivePath}
		},
	}
}

func (s *CommandStrategy) Name() string { return s.name }

func (s *CommandStrategy) Available() bool {
	_, err := exec.LookPath(s.bin)
	return err == nil
}

func (s *CommandStrategy) Extract(ctx context.Context, archivePath, dest string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin, s.args(archivePath, dest)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return fmt.Errorf("%s: %w: %s", s.bin, err, msg)
		}
		return fmt.Errorf("%s: %w", s.bin, err)
	}
	return nil
}
