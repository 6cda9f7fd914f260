package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"risk-review-be/pkg/enrich"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaEnricherAttachesImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shot.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	}))
	defer srv.Close()

	e := NewMediaEnricher(enrich.NewFetcher(time.Second, 1<<10, nil), 4, nopLogger())
	doc := "# post\n![shot](" + srv.URL + "/shot.png)\n![gone](" + srv.URL + "/gone.png)\n"

	got := e.Attachments(context.Background(), doc)
	require.Len(t, got, 1)
	assert.Equal(t, "image/png", got[0].MimeType)
	assert.Equal(t, srv.URL+"/shot.png", got[0].SourceURL)
}

func TestMediaEnricherNoLinks(t *testing.T) {
	e := NewMediaEnricher(enrich.NewFetcher(time.Second, 1<<10, nil), 4, nopLogger())
	assert.Nil(t, e.Attachments(context.Background(), "plain text"))
}
