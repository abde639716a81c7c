package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/virti1331/cc-statement-parser/internal/pipeline"
)

const axisText = `AXIS BANK
Credit Card Number 53346700****1060
Statement Period Payment Due Date Statement Generation Date
16/04/2021 - 15/05/2021 04/06/2021 15/05/2021
Total Payment Due ... 1,289.00 Dr
16/04/2021 POS PURCHASE M&S 1,289.00 Dr`

func setupTestApp(extract pipeline.ExtractFunc) *fiber.App {
	h := &Handler{
		Pipeline: &pipeline.Pipeline{Extract: extract},
		Version:  "test",
	}
	return NewApp(h, Options{MaxUploadMB: 1})
}

func noExtract(string) ([]string, error) {
	return nil, errors.New("extractor should not be called")
}

// uploadRequest builds a multipart POST with an optional file and form fields.
func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4 test"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, gjson.Result, http.Header) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(body), "invalid JSON: %s", body)
	return resp.StatusCode, gjson.ParseBytes(body), resp.Header
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(noExtract)

	status, body, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body.Get("status").String())
	assert.Equal(t, "fiber", body.Get("engine").String())
	assert.Equal(t, "test", body.Get("version").String())
}

func TestParseWithExtractedText(t *testing.T) {
	app := setupTestApp(noExtract)

	req := uploadRequest(t, "axis.pdf", map[string]string{"extractedText": axisText})
	status, body, header := doRequest(t, app, req)

	require.Equal(t, fiber.StatusOK, status, body.Raw)
	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, "axis.pdf", body.Get("file").String())
	assert.Equal(t, "AXIS", body.Get("data.issuer").String())
	assert.Equal(t, "1060", body.Get("data.card_last_4_digits").String())
	assert.Equal(t, "16/04/2021 - 15/05/2021", body.Get("data.billing_period").String())
	assert.Equal(t, "04/06/2021", body.Get("data.payment_due_date").String())
	assert.Equal(t, "₹1,289.00", body.Get("data.total_amount_due").String())
	assert.Contains(t, body.Raw, "POS PURCHASE M&S")
	assert.False(t, body.Get("error").Exists())
	assert.NotEmpty(t, header.Get("X-Request-ID"))
}

func TestParseSplitsPages(t *testing.T) {
	app := setupTestApp(noExtract)

	text := "HDFC BANK\nCard No: 4341 55XX XXXX 3388" + PageBreak + "25/09/2024 SWIGGY BANGALORE 1,250.00"
	status, body, _ := doRequest(t, app, uploadRequest(t, "hdfc.PDF", map[string]string{"extractedText": text}))

	require.Equal(t, fiber.StatusOK, status, body.Raw)
	assert.Equal(t, "4341", body.Get("data.card_last_4_digits").String())
	assert.Equal(t, gjson.Null, body.Get("data.billing_period").Type)
	assert.Equal(t, int64(1), body.Get("data.transactions.#").Int())
}

func TestParseUsesServerSideExtraction(t *testing.T) {
	var gotPath string
	app := setupTestApp(func(path string) ([]string, error) {
		gotPath = path
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(data, []byte("%PDF-1.4 test")) {
			return nil, errors.Errorf("saved upload differs: %q", data)
		}
		return []string{"CHASE BANK\nNew Balance $1,234.56"}, nil
	})

	status, body, _ := doRequest(t, app, uploadRequest(t, "chase.pdf", nil))
	require.Equal(t, fiber.StatusOK, status, body.Raw)
	assert.Equal(t, "CHASE", body.Get("data.issuer").String())
	assert.Equal(t, "1,234.56", body.Get("data.total_amount_due").String())

	require.NotEmpty(t, gotPath)
	_, err := os.Stat(gotPath)
	assert.True(t, os.IsNotExist(err), "temp file %s not removed", filepath.Base(gotPath))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		fields     map[string]string
		extract    pipeline.ExtractFunc
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing file",
			wantStatus: fiber.StatusBadRequest,
			wantError:  "No file part in the request.",
		},
		{
			name:       "not a pdf",
			filename:   "statement.txt",
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Unsupported file type. Please upload a PDF.",
		},
		{
			name:       "unsupported issuer",
			filename:   "statement.pdf",
			fields:     map[string]string{"extractedText": "Acme Credit Union\nTotal Amount Due 10.00"},
			wantStatus: fiber.StatusBadRequest,
			wantError:  "unable to detect credit card issuer",
		},
		{
			name:     "empty document",
			filename: "scan.pdf",
			extract: func(string) ([]string, error) {
				return []string{" "}, nil
			},
			wantStatus: fiber.StatusBadRequest,
			wantError:  "document contains no extractable text",
		},
		{
			name:     "extraction failure",
			filename: "broken.pdf",
			extract: func(string) ([]string, error) {
				return nil, errors.New("malformed xref table")
			},
			wantStatus: fiber.StatusInternalServerError,
			wantError:  "Failed to parse statement: text extraction: malformed xref table",
		},
		{
			name:     "extractor panic",
			filename: "evil.pdf",
			extract: func(string) ([]string, error) {
				panic("boom")
			},
			wantStatus: fiber.StatusInternalServerError,
			wantError:  "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extract := tt.extract
			if extract == nil {
				extract = noExtract
			}
			app := setupTestApp(extract)

			status, body, _ := doRequest(t, app, uploadRequest(t, tt.filename, tt.fields))
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, body.Get("success").Bool())
			assert.Contains(t, body.Get("error").String(), tt.wantError)
			assert.False(t, body.Get("data").Exists())
		})
	}
}

func TestSplitPages(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPages("a"+PageBreak+"  "+PageBreak+"b\n"))
	assert.Nil(t, splitPages("  "))
}
