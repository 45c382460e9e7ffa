// Package media runs the external video encoder between two object-store streams.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/storage"
	"go.uber.org/zap"
)

const maxStderr = 4 << 10

type Compressor struct {
	bucket  storage.Bucket
	command string
	args    []string
	logger  *zap.Logger
}

func NewCompressor(bucket storage.Bucket, command string, args []string, logger *zap.Logger) *Compressor {
	return &Compressor{bucket: bucket, command: command, args: args, logger: logger}
}

// Compress pipes src through the encoder into dst. dst is committed only when the encoder
// exits cleanly; on any failure the write is aborted.
func (c *Compressor) Compress(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in, err := c.bucket.NewReader(ctx, src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := c.bucket.NewWriter(ctx, dst, "video/mp4")
	if err != nil {
		return fmt.Errorf("open target %s: %w", dst, err)
	}

	stderr := &limitedBuffer{max: maxStderr}
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = stderr

	c.logger.Info("video encode started",
		zap.String("source", src),
		zap.String("target", dst),
		zap.String("command", c.command))

	if err := cmd.Run(); err != nil {
		cancel()
		_ = out.Close()
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return fmt.Errorf("encoder exited with %d: %s", exitErr.ExitCode(), msg)
		}
		return fmt.Errorf("encoder: %w", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("commit target %s: %w", dst, err)
	}
	c.logger.Info("video encode finished", zap.String("target", dst))
	return nil
}

// limitedBuffer keeps the first max bytes of encoder stderr.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if room := l.max - l.buf.Len(); room > 0 {
		if len(p) > room {
			l.buf.Write(p[:room])
		} else {
			l.buf.Write(p)
		}
	}
	return len(p), nil
}

func (l *limitedBuffer) String() string { return l.buf.String() }
