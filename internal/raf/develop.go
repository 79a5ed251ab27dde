package raf

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"raf-importer/internal/logging"
)

// Developer runs the full demosaic for a raw file and returns the
// developed frame as encoded TIFF bytes, rotation not yet applied.
type Developer interface {
	Develop(ctx context.Context, path string) ([]byte, Metadata, error)
}

// DCRawDeveloper shells out to a dcraw-compatible binary that can
// stream TIFF output on stdout.
type DCRawDeveloper struct {
	// Command is the binary to invoke, "dcraw" when empty.
	Command string

	// Profile holds the develop parameters, DefaultProfile when zero.
	Profile Profile
}

// NewDeveloper returns a DCRawDeveloper using the fixed default profile.
func NewDeveloper(command string) *DCRawDeveloper {
	return &DCRawDeveloper{Command: command, Profile: DefaultProfile()}
}

// Develop implements Developer.
func (d *DCRawDeveloper) Develop(ctx context.Context, path string) ([]byte, Metadata, error) {
	meta, err := ReadMetadata(path)
	if err != nil {
		return nil, Metadata{}, err
	}

	command := d.Command
	if command == "" {
		command = "dcraw"
	}
	profile := d.Profile
	if profile == (Profile{}) {
		profile = DefaultProfile()
	}

	cmd := exec.CommandContext(ctx, command, profile.Args(path)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, Metadata{}, ctx.Err()
		}
		return nil, Metadata{}, fmt.Errorf("%w: %s: %v - %s", ErrDecode, path, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, Metadata{}, fmt.Errorf("%w: %s: %s produced no output", ErrDecode, path, command)
	}

	logging.Debug("Developed %s: %d bytes via %s", path, stdout.Len(), command)
	return stdout.Bytes(), meta, nil
}
