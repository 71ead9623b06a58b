// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchParsesDocument(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><table><tr><td>a</td></tr></table><img src="/x.png"></body></html>`)
	}))
	defer ts.Close()

	f := &Fetcher{Client: ts.Client(), UserAgent: "Mozilla/5.0 test", Logger: zerolog.Nop()}
	doc, err := f.Fetch(context.Background(), ts.URL+"/pmc/articles/PMC1/")
	require.NoError(t, err)

	assert.Equal(t, "Mozilla/5.0 test", gotUA)
	assert.Equal(t, 1, doc.Find("table").Length())
	assert.Equal(t, 1, doc.Find("img").Length())
	assert.Equal(t, "/pmc/articles/PMC1/", doc.Base.Path)
}

func TestFetchFollowsRedirectForBase(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/articles/PMC2/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/articles/PMC2/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><p>ok</p></body></html>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := &Fetcher{Client: ts.Client(), Logger: zerolog.Nop()}
	doc, err := f.Fetch(context.Background(), ts.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, "/articles/PMC2/", doc.Base.Path)
}

func TestFetchTranscodesCharset(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Caf\xe9" is "Café" in Latin-1.
		w.Write([]byte("<html><body><p id=\"t\">Caf\xe9</p></body></html>"))
	}))
	defer ts.Close()

	f := &Fetcher{Client: ts.Client(), Logger: zerolog.Nop()}
	doc, err := f.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "Café", doc.Find("#t").Text())
}

func TestFetchNon2xx(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	f := &Fetcher{Client: ts.Client(), Logger: zerolog.Nop()}
	_, err := f.Fetch(context.Background(), ts.URL)

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusForbidden, ferr.StatusCode)
	assert.Equal(t, 1, calls, "fetch must not retry")
}

func TestFetchTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	f := &Fetcher{Client: ts.Client(), Timeout: 50 * time.Millisecond, Logger: zerolog.Nop()}
	_, err := f.Fetch(context.Background(), ts.URL)

	var ferr *FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Zero(t, ferr.StatusCode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFromString(t *testing.T) {
	doc, err := FromString(`<div class="figure"><img src="a.png"></div>`, "https://example.org/pmc/PMC3/")
	require.NoError(t, err)
	assert.Equal(t, "example.org", doc.Base.Host)
	assert.Equal(t, 1, doc.Find("div.figure img").Length())
}
