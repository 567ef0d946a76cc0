package hkjc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchStatic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><table><tr><td>馬號</td><td>賠率</td></tr></table></body></html>`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{Timeout: time.Second * 5})
	doc, err := client.Fetch(context.Background(), server.URL, FetchStatic)
	require.NoError(t, err)

	_, err = Locate(doc, SigOddsGeneric)
	require.NoError(t, err)
}

func TestFetchStaticBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{Timeout: time.Second * 5})
	_, err := client.Fetch(context.Background(), server.URL, FetchStatic)
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestVerifyRacePage(t *testing.T) {
	key := mustKey(t, "2025-07-01", ShaTin, 1)

	// a page with no race marker means no racing on that date
	doc := docFromHTML(t, `<html><body><div>暫無資料</div></body></html>`)
	require.ErrorIs(t, VerifyRacePage(doc, key), ErrNoData)

	// a marker with the wrong date means the site redirected the
	// stale URL to another meeting
	doc = docFromHTML(t, `<html><body><div>第1場 2025-06-25 沙田</div></body></html>`)
	require.ErrorIs(t, VerifyRacePage(doc, key), ErrKeyMismatch)

	// wrong venue with the right date is still another meeting
	doc = docFromHTML(t, `<html><body><div>第1場 2025-07-01 跑馬地</div></body></html>`)
	require.ErrorIs(t, VerifyRacePage(doc, key), ErrKeyMismatch)

	doc = docFromHTML(t, `<html><body><div>第1場 2025-07-01 沙田</div></body></html>`)
	require.NoError(t, VerifyRacePage(doc, key))
}

func TestVerifyRacePageDateForms(t *testing.T) {
	key := mustKey(t, "2025-07-01", ShaTin, 1)

	for _, form := range []string{"2025-07-01", "2025/07/01", "01/07/2025"} {
		doc := docFromHTML(t, `<html><body><div>Race 1 `+form+`</div></body></html>`)
		require.NoError(t, VerifyRacePage(doc, key), form)
	}
}

func TestVerifyRacePageVenueOptional(t *testing.T) {
	key := mustKey(t, "2025-07-01", ShaTin, 1)

	// result layouts that never name the course still verify on the
	// marker and date alone
	doc := docFromHTML(t, `<html><body><div>第 1 場 2025/07/01</div></body></html>`)
	require.NoError(t, VerifyRacePage(doc, key))
}
