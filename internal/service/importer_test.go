package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yizhiakuya/MemeStore/internal/domain"
)

func TestImport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png; charset=binary")
		w.Write([]byte("fake-png-bytes"))
	}))
	defer srv.Close()

	memes := newFakeMemeStore()
	store := &fakeObjectStore{}
	svc := newTestMemeService(memes, newFakeTagStore(), store, newFakeCache())
	importer := NewImporter(svc, newTestLogger(), nil)

	meme, err := importer.Import(context.Background(), &ImportInput{
		URL:      srv.URL + "/hotlinked.png",
		Title:    strPtr("imported"),
		TagNames: []string{"remote"},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if meme.Type != domain.MemeTypeImage {
		t.Errorf("type = %q, want image", meme.Type)
	}
	if meme.MimeType == nil || *meme.MimeType != "image/png" {
		t.Errorf("mime type = %v, want image/png without parameters", meme.MimeType)
	}
	if meme.Filename == nil || !strings.HasSuffix(*meme.Filename, ".png") {
		t.Errorf("filename = %v, want extension taken from the URL path", meme.Filename)
	}
	if len(store.uploads) != 5 {
		t.Errorf("uploads = %d, want the full variant set", len(store.uploads))
	}
}

func TestImportRejections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		case "/empty.png":
			w.Header().Set("Content-Type", "image/png")
		}
	}))
	defer srv.Close()

	svc := newTestMemeService(newFakeMemeStore(), newFakeTagStore(), &fakeObjectStore{}, newFakeCache())
	importer := NewImporter(svc, newTestLogger(), nil)

	tests := []struct {
		name string
		url  string
		kind domain.ErrorKind
	}{
		{"bad scheme", "ftp://example.com/a.png", domain.KindValidation},
		{"not a url", "://", domain.KindValidation},
		{"remote 404", srv.URL + "/missing", domain.KindStorage},
		{"non-image content", srv.URL + "/page.html", domain.KindValidation},
		{"empty body", srv.URL + "/empty.png", domain.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.Import(context.Background(), &ImportInput{URL: tt.url})
			if !domain.IsKind(err, tt.kind) {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}
