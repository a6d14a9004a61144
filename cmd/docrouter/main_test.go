package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docrouter/internal/classifier"
	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/export"
	"github.com/joseph-ayodele/docrouter/internal/extract"
	"github.com/joseph-ayodele/docrouter/internal/handlers"
	"github.com/joseph-ayodele/docrouter/internal/llm/llmtest"
	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/pipeline"
)

const emailPayload = `{"sender_name":"John Doe","sender_email":"customer@example.com","subject":"RFQ","extracted_intent":"RFQ","urgency":"High","summary":"Quote."}`

func testApp(t *testing.T) *app {
	t.Helper()
	gen := llmtest.ByMode("RFQ", emailPayload)
	store := memory.NewMemoryStore(nil)
	hs := pipeline.Handlers{
		Email:    handlers.NewEmailHandler(gen, store),
		JSON:     handlers.NewJSONHandler(gen, store),
		Document: handlers.NewDocumentHandler(gen, store, extract.NewPDFExtractor(extract.Config{}, nil)),
	}
	return &app{
		cfg:        &common.Config{},
		logger:     newTestLogger(),
		store:      store,
		dispatcher: pipeline.NewDispatcher(classifier.New(gen, store), hs, store),
		exporter:   export.NewService(store, nil),
	}
}

func newTestLogger() *slog.Logger {
	l, _ := newLogger(common.LogConfig{Level: "error", Format: "text"}, &bytes.Buffer{})
	return l
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestReadInput(t *testing.T) {
	got, err := readInput("-", strings.NewReader("Subject: hi"))
	require.NoError(t, err)
	assert.Equal(t, "Subject: hi", got)

	got, err = readInput("/no/such/invoice.PDF", nil)
	require.NoError(t, err)
	assert.Equal(t, "/no/such/invoice.PDF", got)

	p := writeFile(t, "mail.eml", "From: a@b.c\nSubject: RFQ")
	got, err = readInput(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "From: a@b.c\nSubject: RFQ", got)

	_, err = readInput(filepath.Join(t.TempDir(), "missing.txt"), nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "INPUT_ERROR", appErr.Code)
}

func TestProcessInputsChain(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	first := writeFile(t, "first.eml", "From: a@b.c\nSubject: RFQ for widgets")
	second := writeFile(t, "second.eml", "From: a@b.c\nSubject: follow up")

	var out bytes.Buffer
	last, err := a.processInputs(ctx, []string{first, second}, "", true, nil, &out)
	require.NoError(t, err)
	require.NotEmpty(t, last)
	assert.Equal(t, 2, strings.Count(out.String(), "== "))

	recs, err := a.store.Context(ctx, last)
	require.NoError(t, err)
	assert.Len(t, recs, 4)

	out.Reset()
	require.NoError(t, a.printContext(ctx, last, &out))
	assert.Contains(t, out.String(), `"source": "email_handler"`)
}

func TestProcessInputsWithoutChain(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	in := writeFile(t, "mail.eml", "From: a@b.c\nSubject: RFQ")

	_, err := a.processInputs(ctx, []string{in, in}, "", false, nil, &bytes.Buffer{})
	require.NoError(t, err)

	ids, err := a.store.Threads(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestExportThread(t *testing.T) {
	a := testApp(t)
	in := writeFile(t, "mail.eml", "From: a@b.c\nSubject: RFQ")
	out := filepath.Join(t.TempDir(), "thread.xlsx")

	require.NoError(t, a.exportThread(context.Background(), []string{in}, "", out, nil, &bytes.Buffer{}))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(common.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown", "thread_id", "t1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"thread_id":"t1"`)

	_, err = newLogger(common.LogConfig{Level: "loud"}, &buf)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = newLogger(common.LogConfig{Level: "info", Format: "xml"}, &buf)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcessParallel(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	inputs := []string{
		writeFile(t, "one.eml", "From: a@b.c\nSubject: one"),
		writeFile(t, "two.eml", "From: a@b.c\nSubject: two"),
		writeFile(t, "three.eml", "From: a@b.c\nSubject: three"),
	}

	var out bytes.Buffer
	last, err := a.processParallel(ctx, inputs, "", 3, nil, &out)
	require.NoError(t, err)
	require.NotEmpty(t, last)

	text := out.String()
	assert.Less(t, strings.Index(text, inputs[0]), strings.Index(text, inputs[1]))
	assert.Less(t, strings.Index(text, inputs[1]), strings.Index(text, inputs[2]))

	ids, err := a.store.Threads(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestBuildAppRemoteDocumentRoot(t *testing.T) {
	ctx := context.Background()
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Other"},"finish_reason":"stop"}]}`))
	}))
	defer llmSrv.Close()

	secret := writeFile(t, "secret.pdf", "%PDF-1.4")
	for _, root := range []string{"", t.TempDir()} {
		cfg := &common.Config{
			LLM:     common.LLMConfig{Provider: "openai", APIKey: "k", BaseURL: llmSrv.URL, Model: "m", Timeout: 5 * time.Second},
			Store:   common.StoreConfig{Driver: "memory"},
			Server:  common.ServerConfig{DocumentRoot: root},
			Extract: common.ExtractConfig{MaxDocumentChars: 100, MaxClassifierChars: 100},
		}
		a, err := buildApp(ctx, cfg, newTestLogger())
		require.NoError(t, err)
		require.NotNil(t, a.remote)

		res := a.remote.Process(ctx, secret, "")
		recs, err := a.store.Context(ctx, res.ThreadID())
		require.NoError(t, err)
		require.NotEmpty(t, recs)
		assert.Equal(t, "Text", recs[0].InputType, "root=%q", root)
		a.Close(ctx)
	}
}
