package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/ulikunitz/xz"
)

// Format is an archive container or compression format.
type Format string

const (
	FormatUnknown Format = ""
	FormatGzip    Format = "gzip"
	FormatZip     Format = "zip"
	Format7z      Format = "7z"
	FormatRar     Format = "rar"
	FormatBzip2   Format = "bzip2"
	FormatXz      Format = "xz"
	FormatZstd    Format = "zstd"
	FormatLzip    Format = "lzip"
	FormatTar     Format = "tar"
)

// sniffBytes is how much of the body Sniff reads. Enough for a tar header.
const sniffBytes = 4096

// ErrUnknownFormat is returned when no known archive signature matches.
var ErrUnknownFormat = errors.New("no archive signature found")

var signatures = []struct {
	format Format
	offset int
	magic  []byte
}{
	{FormatGzip, 0, []byte{0x1f, 0x8b}},
	{FormatZip, 0, []byte("PK\x03\x04")},
	{FormatZip, 0, []byte("PK\x05\x06")},
	{Format7z, 0, []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}},
	{FormatRar, 0, []byte("Rar!\x1a\x07")},
	{FormatBzip2, 0, []byte("BZh")},
	{FormatXz, 0, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{FormatZstd, 0, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{FormatLzip, 0, []byte("LZIP")},
	{FormatTar, 257, []byte("ustar")},
}

// DetectFormat identifies the archive format of head by its magic bytes.
func DetectFormat(head []byte) Format {
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if len(head) >= end && bytes.Equal(head[sig.offset:end], sig.magic) {
			return sig.format
		}
	}
	return FormatUnknown
}

// verifyHeader checks that the stream header parses with the matching
// decoder. Formats without a streaming decoder are accepted on magic alone.
func verifyHeader(f Format, head []byte) error {
	switch f {
	case FormatGzip:
		zr, err := gzip.NewReader(bytes.NewReader(head))
		if err != nil {
			return err
		}
		return zr.Close()
	case FormatZstd:
		var h zstd.Header
		return h.Decode(head)
	case FormatXz:
		_, err := xz.NewReader(bytes.NewReader(head))
		return err
	case FormatLzip:
		_, err := lzip.NewReader(bytes.NewReader(head))
		return err
	case FormatBzip2:
		if len(head) < 4 || head[3] < '1' || head[3] > '9' {
			return errors.New("bzip2: invalid block size")
		}
	}
	return nil
}

// Sniff downloads the first bytes of raw and identifies the archive format
// from its signature. It is a diagnostic: Validate never calls it.
func (v *Validator) Sniff(ctx context.Context, raw string) (Format, error) {
	u, res, ok := checkTarget(raw)
	if !ok {
		return FormatUnknown, fmt.Errorf("url rejected: %s", res.Reason)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return FormatUnknown, err
	}
	req.Header.Set("User-Agent", MobileUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", sniffBytes-1))

	resp, err := v.client.Do(req)
	if err != nil {
		return FormatUnknown, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return FormatUnknown, &StatusError{StatusCode: resp.StatusCode}
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, sniffBytes))
	if err != nil && len(head) == 0 {
		return FormatUnknown, fmt.Errorf("reading body: %w", err)
	}

	f := DetectFormat(head)
	if f == FormatUnknown {
		return FormatUnknown, ErrUnknownFormat
	}
	if err := verifyHeader(f, head); err != nil {
		return f, fmt.Errorf("%s signature found but header is invalid: %w", f, err)
	}
	v.logger.Debug("archive sniffed", "url", raw, "format", f, "bytes", len(head))
	return f, nil
}
