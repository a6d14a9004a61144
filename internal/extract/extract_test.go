package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docrouter/internal/common"
)

type stubRunner struct {
	out   string
	err   error
	calls [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.err != nil {
		return nil, []byte("Syntax Error: broken"), s.err
	}
	return []byte(s.out), nil, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPDFExtractorSplitsPages(t *testing.T) {
	path := writeFile(t, "invoice.pdf", []byte("%PDF-1.4"))
	r := &stubRunner{out: "Invoice INV-1\fTotal 10 USD\f"}
	e := NewPDFExtractor(Config{Pdftotext: "/usr/bin/pdftotext"}, nil, WithRunner(r))

	doc, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice INV-1", "Total 10 USD"}, doc.Pages)
	assert.Equal(t, "Invoice INV-1\nTotal 10 USD\n", doc.Text())
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"/usr/bin/pdftotext", "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-"}, r.calls[0])
}

func TestPDFExtractorFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		r := &stubRunner{}
		e := NewPDFExtractor(Config{}, nil, WithRunner(r))
		_, err := e.Extract(ctx, filepath.Join(t.TempDir(), "gone.pdf"))
		assert.ErrorIs(t, err, common.ErrInvalidInput)
		assert.Empty(t, r.calls)
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := writeFile(t, "notes.txt", []byte("hi"))
		_, err := NewPDFExtractor(Config{}, nil, WithRunner(&stubRunner{})).Extract(ctx, path)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("command fails", func(t *testing.T) {
		path := writeFile(t, "bad.pdf", []byte("garbage"))
		boom := errors.New("exit status 1")
		_, err := NewPDFExtractor(Config{}, nil, WithRunner(&stubRunner{err: boom})).Extract(ctx, path)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no output", func(t *testing.T) {
		path := writeFile(t, "empty.pdf", []byte("%PDF-1.4"))
		_, err := NewPDFExtractor(Config{}, nil, WithRunner(&stubRunner{})).Extract(ctx, path)
		assert.ErrorIs(t, err, ErrNoPages)
	})
}

func TestPDFProbe(t *testing.T) {
	ctx := context.Background()
	p := NewPDFProbe(nil)

	n, err := p.PageCount(ctx, writeFile(t, "one.pdf", buildTextPDF("Invoice 42")))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = p.PageCount(ctx, writeFile(t, "fake.pdf", []byte("just text pretending")))
	assert.Error(t, err)

	_, err = p.PageCount(ctx, filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

// buildTextPDF writes a minimal single-page PDF with a correct xref table.
func buildTextPDF(text string) []byte {
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + text + ") Tj\nET"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream)
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}
