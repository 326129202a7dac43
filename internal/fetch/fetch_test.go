package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><main>Hello funding</main></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.HTML, "Hello funding")
}

func TestURLInvalid(t *testing.T) {
	_, err := URL(context.Background(), "not-a-url", nil)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Error(), "invalid URL")
}

func TestURLNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, nil)
	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestURLUnsupportedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, nil)
	var unsupported *UnsupportedContentError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "application/pdf", unsupported.ContentType)
}

func TestURLSizeCeiling(t *testing.T) {
	big := strings.Repeat("a", MaxContentBytes+10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(big))
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, nil)
	var unsupported *UnsupportedContentError
	require.ErrorAs(t, err, &unsupported)
	assert.Greater(t, unsupported.Size, int64(MaxContentBytes))
}

func TestURLUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{URL: "https://example.com", Message: "wrapped", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestExtractMainText(t *testing.T) {
	html := `<html><body>
		<nav>Navigation stuff</nav>
		<main>
			<h1>Grant X</h1>
			<p>Funding for startups.</p>
		</main>
		<footer>Footer noise</footer>
	</body></html>`

	text, err := ExtractMainText(html, FundingPageSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Grant X")
	assert.Contains(t, text, "Funding for startups.")
	assert.NotContains(t, text, "Navigation stuff")
	assert.NotContains(t, text, "Footer noise")
}

func TestExtractMainTextFallbackToBody(t *testing.T) {
	html := `<html><body><div>Plain content</div></body></html>`
	text, err := ExtractMainText(html, FundingPageSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Plain content")
}
