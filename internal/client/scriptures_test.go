package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"scriptures/mapped/internal/config"
)

const chapterHTML = `<html><body>
<ul class="versesblock">
<li>In the land of <a onclick="showLocation(1001,'Jerusalem',31.778,35.229,31.778,35.229,0,0,5000,0,'')" href="javascript:void(0);">Jerusalem</a>
and <a onclick="showLocation(1002,'Bethsaida',32.910,35.631,32.910,35.631,0,0,5000,0,'(2)')">Bethsaida</a>,
<a onclick="showLocation(oops)">broken</a>
<a href="#">plain link</a></li>
</ul></body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/model/books.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"102":{"id":102,"parentBookId":1,"tocName":"Exodus","numChapters":40},
			"101":{"id":101,"parentBookId":1,"tocName":"Genesis","fullName":"Genesis","numChapters":50}}`))
	})
	mux.HandleFunc("/model/volumes.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"fullName":"Old Testament","minBookId":101,"maxBookId":102}]`))
	})
	mux.HandleFunc("/mapgetscrip.php", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("book") != "101" || q.Get("chap") != "3" || q.Get("jst") != "no" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		if _, ok := q["verses"]; !ok {
			http.Error(w, "missing verses", http.StatusBadRequest)
			return
		}
		w.Write([]byte(chapterHTML))
	})
	mux.HandleFunc("/broken/books.php", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) config.ScripturesConfig {
	return config.ScripturesConfig{
		BaseURL:              baseURL,
		BooksPath:            "/model/books.php",
		VolumesPath:          "/model/volumes.php",
		ChapterPath:          "/mapgetscrip.php",
		ChapterOptions:       "verses&jst=no",
		Timeout:              5,
		MaxRetries:           0,
		MaxRequestsPerSecond: 100,
	}
}

func TestGetBooksSortsObjectResponse(t *testing.T) {
	srv := newTestServer(t)
	c := NewScripturesClient(testConfig(srv.URL))

	books, err := c.GetBooks(context.Background())
	if err != nil {
		t.Fatalf("GetBooks: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[0].ID != 101 || books[1].ID != 102 {
		t.Errorf("expected books sorted by id, got %d, %d", books[0].ID, books[1].ID)
	}
	if books[0].NumChapters != 50 || books[0].TocName != "Genesis" {
		t.Errorf("unexpected book: %+v", books[0])
	}
}

func TestGetVolumes(t *testing.T) {
	srv := newTestServer(t)
	c := NewScripturesClient(testConfig(srv.URL))

	volumes, err := c.GetVolumes(context.Background())
	if err != nil {
		t.Fatalf("GetVolumes: %v", err)
	}
	if len(volumes) != 1 || volumes[0].MinBookID != 101 || volumes[0].MaxBookID != 102 {
		t.Errorf("unexpected volumes: %+v", volumes)
	}
}

func TestGetChapterExtractsGeotags(t *testing.T) {
	srv := newTestServer(t)
	c := NewScripturesClient(testConfig(srv.URL))

	content, err := c.GetChapter(context.Background(), 101, 3)
	if err != nil {
		t.Fatalf("GetChapter: %v", err)
	}
	if content.BookID != 101 || content.Chapter != 3 {
		t.Errorf("unexpected chapter id %d:%d", content.BookID, content.Chapter)
	}
	if len(content.Geotags) != 2 {
		t.Fatalf("expected 2 geotags (malformed one skipped), got %d", len(content.Geotags))
	}
	if content.Geotags[0].PlaceName != "Jerusalem" || content.Geotags[0].Latitude != 31.778 {
		t.Errorf("unexpected first geotag: %+v", content.Geotags[0])
	}
	if content.Geotags[1].Flag != "(2)" {
		t.Errorf("expected flag (2), got %q", content.Geotags[1].Flag)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := newTestServer(t)
	cfg := testConfig(srv.URL)
	cfg.BooksPath = "/broken/books.php"
	c := NewScripturesClient(cfg)

	_, err := c.GetBooks(context.Background())
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}
