package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	body := []byte(`[[["Hello world","salom dunyo",null,null,10],[" again","yana",null,null,3]],null,"uz"]`)

	got, err := parseResponse(body)

	require.NoError(t, err)
	assert.Equal(t, "Hello world again", got)
}

func TestParseResponse_Invalid(t *testing.T) {
	if _, err := parseResponse([]byte("<html>blocked</html>")); err == nil {
		t.Error("expected error for non-JSON body")
	}

	if _, err := parseResponse([]byte("[]")); err == nil {
		t.Error("expected error for empty payload")
	}
}

func TestHTTPProvider_Translate(t *testing.T) {
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[["Hello","salom",null,null,1]]]`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, 5*time.Second)

	got, err := p.Translate(context.Background(), "salom", "uz", "en")

	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
	assert.Equal(t, "salom", gotQuery)
}

func TestHTTPProvider_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, 5*time.Second)

	_, err := p.Translate(context.Background(), "salom", "uz", "en")

	assert.ErrorIs(t, err, ErrUnexpectedStatusCode)
}
