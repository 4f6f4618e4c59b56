package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"io"
	"strconv"

	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

const importPath = "github.com/ssargent/uniclass/pkg/uniclass"

// GoOptions configures WriteGo.
type GoOptions struct {
	Package string // Package clause of the generated file
	Digest  string // Source digest recorded in the header
}

// WriteGo writes the catalog as a formatted Go source file exposing a static
// title lookup table.
func WriteGo(w io.Writer, cat *catalog.Catalog, opts GoOptions) error {
	if !token.IsIdentifier(opts.Package) {
		return fmt.Errorf("gen: invalid package name %q", opts.Package)
	}

	var buf bytes.Buffer
	if err := writeHeader(&buf, opts.Digest); err != nil {
		return err
	}
	fmt.Fprintf(&buf, "\npackage %s\n\n", opts.Package)
	fmt.Fprintf(&buf, "import %q\n\n", importPath)
	fmt.Fprintf(&buf, "// titles holds %d entries.\n", cat.Len())
	fmt.Fprintf(&buf, "var titles = map[uniclass.Code]string{\n")

	var err error
	cat.Ascend(func(e catalog.Entry) bool {
		if !e.Code.Hierarchical() {
			err = fmt.Errorf("gen: %s: %w", e.Code, uniclass.ErrNonHierarchical)
			return false
		}
		fmt.Fprintf(&buf, "\t%s: %s,\n", constructor(e.Code), strconv.Quote(e.Title))
		return true
	})
	if err != nil {
		return err
	}
	buf.WriteString("}\n\n")
	buf.WriteString(goAccessors)

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("gen: format generated source: %w", err)
	}
	_, err = w.Write(src)
	return err
}

func constructor(c uniclass.Code) string {
	b := make([]byte, 0, 64)
	b = append(b, "uniclass.MustNew("...)
	b = append(b, c.Table().GoString()...)
	b = append(b, ", "...)
	b = strconv.AppendUint(b, uint64(c.Group()), 10)
	for _, level := range []func() (uint8, bool){c.SubGroup, c.Section, c.Object} {
		v, ok := level()
		if !ok {
			break
		}
		b = append(b, ", "...)
		b = strconv.AppendUint(b, uint64(v), 10)
	}
	return string(append(b, ')'))
}

const goAccessors = `// Title returns the title for code.
func Title(code uniclass.Code) (string, bool) {
	title, ok := titles[code]
	return title, ok
}

// Len returns the number of known codes.
func Len() int {
	return len(titles)
}
`
