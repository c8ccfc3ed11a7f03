package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error

	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.gotName = name
	f.gotArgs = args
	return f.stdout, f.stderr, f.err
}

func TestExtractPDF(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("page one\fpage two\fpage three")}
	e := NewExtractor(Config{Pdftotext: "pdftotext"}, nil)
	e.runner = runner

	res, err := e.Extract(context.Background(), "/tmp/invoice.pdf")
	require.NoError(t, err)

	assert.Equal(t, "page one\fpage two\fpage three", res.Text)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "pdf-text", res.Method)

	assert.Equal(t, "pdftotext", runner.gotName)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "/tmp/invoice.pdf", "-"}, runner.gotArgs)
}

func TestExtractPDFCommandFailure(t *testing.T) {
	runner := &fakeRunner{stderr: []byte("Syntax Error: broken xref"), err: errors.New("exit status 1")}
	e := NewExtractor(Config{}, nil)
	e.runner = runner

	_, err := e.Extract(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.pdf")
}

func TestExtractPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte("Auto-facture: 4968S0001\n"), 0o644))

	e := NewExtractor(Config{}, nil)
	res, err := e.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Auto-facture: 4968S0001\n", res.Text)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "plain-text", res.Method)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	_, err := e.Extract(context.Background(), "scan.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}
