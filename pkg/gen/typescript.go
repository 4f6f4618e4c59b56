package gen

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ssargent/uniclass/pkg/catalog"
)

// WriteTypeScript writes the catalog as a TypeScript constant mapping each code
// to its title, in catalog order.
func WriteTypeScript(w io.Writer, cat *catalog.Catalog, digest string) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, digest); err != nil {
		return err
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "export const UNICLASS = {")

	var title bytes.Buffer
	enc := json.NewEncoder(&title)
	enc.SetEscapeHTML(false)

	var err error
	cat.Ascend(func(e catalog.Entry) bool {
		var code []byte
		if code, err = e.Code.MarshalText(); err != nil {
			return false
		}
		title.Reset()
		if err = enc.Encode(e.Title); err != nil {
			return false
		}
		_, err = fmt.Fprintf(bw, "  %q: %s,\n", code, bytes.TrimSuffix(title.Bytes(), []byte("\n")))
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	fmt.Fprintln(bw, "} as const;")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "export type UniclassCode = keyof typeof UNICLASS;")
	return bw.Flush()
}
