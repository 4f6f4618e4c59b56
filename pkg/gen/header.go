package gen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const (
	generatedLine = "// Code generated by uniclass gen; DO NOT EDIT."
	digestLine    = "// Source digest: "

	// headerScanLines bounds how far DigestFromHeader looks.
	headerScanLines = 5
)

// ErrNoDigest is returned when a file carries no digest header.
var ErrNoDigest = errors.New("gen: no source digest header")

func writeHeader(w io.Writer, digest string) error {
	if _, err := fmt.Fprintln(w, generatedLine); err != nil {
		return err
	}
	if digest != "" {
		if _, err := fmt.Fprintln(w, digestLine+digest); err != nil {
			return err
		}
	}
	return nil
}

// DigestFromHeader reads the source digest recorded by a generator.
func DigestFromHeader(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for i := 0; i < headerScanLines && scanner.Scan(); i++ {
		if digest, ok := strings.CutPrefix(scanner.Text(), digestLine); ok {
			return strings.TrimSpace(digest), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrNoDigest
}

// UpToDate reports whether the file at path was generated from inputs with the
// given digest. A missing file or one without a header is not up to date.
func UpToDate(path, digest string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	existing, err := DigestFromHeader(f)
	if errors.Is(err, ErrNoDigest) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return existing == digest, nil
}
