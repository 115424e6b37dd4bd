package subtitle

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"subforge/internal/logging"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Converter normalizes subtitle file encoding to UTF-8.
type Converter struct {
	logger *slog.Logger
}

// NewConverter constructs an encoding converter.
func NewConverter(logger *slog.Logger) *Converter {
	return &Converter{logger: logging.NewComponentLogger(logger, "converter")}
}

// Convert rewrites path as UTF-8 without BOM. It reports whether the file
// was rewritten; files already in plain UTF-8 are left untouched.
func (c *Converter) Convert(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read subtitle: %w", err)
	}
	if len(raw) == 0 {
		return false, fmt.Errorf("subtitle %s is empty", path)
	}

	converted, changed, err := toUTF8(raw)
	if err != nil {
		return false, fmt.Errorf("convert subtitle %s: %w", path, err)
	}
	if !changed {
		return false, nil
	}
	if len(converted) == 0 {
		return false, fmt.Errorf("conversion produced empty output for %s", path)
	}

	if err := os.WriteFile(path, converted, 0o644); err != nil {
		return false, fmt.Errorf("write subtitle: %w", err)
	}
	if c.logger != nil {
		c.logger.Info("subtitle re-encoded to UTF-8",
			logging.String(logging.FieldEventType, "subtitle_converted"),
			logging.String(logging.FieldPath, path),
			logging.Int("bytes", len(converted)),
		)
	}
	return true, nil
}

func toUTF8(raw []byte) ([]byte, bool, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		return raw[len(utf8BOM):], true, nil
	}
	if utf8.Valid(raw) {
		return raw, false, nil
	}

	// Not valid UTF-8: sniff the legacy encoding and decode it. The sniffer
	// falls back to windows-1252, which is also the common case for scene
	// subtitle releases.
	enc, _, _ := charset.DetermineEncoding(raw, "text/plain")
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, false, err
	}
	return decoded, true, nil
}
