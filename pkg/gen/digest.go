package gen

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// DigestPrefix names the hash algorithm in a digest string.
const DigestPrefix = "blake3:"

// Version is folded into every digest. Bump it when the generators change
// their output for the same input.
const Version = 1

// Digest hashes the names and contents of the given files, the generator
// Version and params. The result does not depend on the order of paths or on
// the directory they live in; the order of params matters.
func Digest(paths []string, params ...string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.Base(sorted[i]) < filepath.Base(sorted[j])
	})

	h := blake3.New()
	var size [8]byte
	for _, path := range sorted {
		n, err := hashFile(h, path)
		if err != nil {
			return "", err
		}
		binary.BigEndian.PutUint64(size[:], uint64(n))
		h.Write(size[:])
	}

	binary.BigEndian.PutUint64(size[:], Version)
	h.Write([]byte{0xff})
	h.Write(size[:])
	for _, p := range params {
		binary.BigEndian.PutUint64(size[:], uint64(len(p)))
		h.Write(size[:])
		io.WriteString(h, p)
	}
	return DigestPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	io.WriteString(w, filepath.Base(path))
	w.Write([]byte{0})
	n, err := io.Copy(w, f)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return n, nil
}
