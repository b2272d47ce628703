package store

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorded struct {
	method        string
	path          string
	auth          string
	contentLength int64
	body          string
}

func newPixeldrainServer(t *testing.T, status int, respBody string) (*httptest.Server, <-chan recorded, *atomic.Int32) {
	t.Helper()
	rec := make(chan recorded, 4)
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		rec <- recorded{
			method:        r.Method,
			path:          r.URL.EscapedPath(),
			auth:          r.Header.Get("Authorization"),
			contentLength: r.ContentLength,
			body:          string(body),
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, rec, hits
}

func newTestUploader(srv *httptest.Server, key string) *PixeldrainUploader {
	return &PixeldrainUploader{
		Client:  srv.Client(),
		Key:     key,
		APIURL:  srv.URL + "/api",
		FileURL: DefaultFileURL,
	}
}

func TestPixeldrainUploadSuccess(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusOK, http.StatusCreated} {
		srv, recs, _ := newPixeldrainServer(t, status, `{"id":"abc123"}`)
		u := newTestUploader(srv, "secret")

		res, err := u.Upload(context.Background(), UploadParams{
			Name: "/tmp/some dir/report final.txt",
			Body: strings.NewReader("hello world"),
			Size: 11,
		})
		require.NoError(t, err)
		require.Equal(t, "abc123", res.ID)
		require.Equal(t, DefaultFileURL+"/u/abc123", res.URL)

		rec := <-recs
		require.Equal(t, http.MethodPut, rec.method)
		require.Equal(t, "/api/file/report%20final.txt", rec.path)
		require.Equal(t, "hello world", rec.body)
		require.EqualValues(t, 11, rec.contentLength)
		require.Equal(t, AuthorizationHeader("secret"), rec.auth)
	}
}

func TestPixeldrainUploadEscapesName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		want string
	}{
		{name: "100%.txt", want: "/api/file/100%25.txt"},
		{name: "x%zz.bin", want: "/api/file/x%25zz.bin"},
		{name: "a?b#c.txt", want: "/api/file/a%3Fb%23c.txt"},
		{name: "plain.txt", want: "/api/file/plain.txt"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, recs, _ := newPixeldrainServer(t, http.StatusCreated, `{"id":"x"}`)
			_, err := newTestUploader(srv, "key").Upload(context.Background(), UploadParams{
				Name: "/some/dir/" + tc.name,
				Body: strings.NewReader("x"),
				Size: 1,
			})
			require.NoError(t, err)
			require.Equal(t, tc.want, (<-recs).path)
		})
	}
}

func TestPixeldrainUploadFailure(t *testing.T) {
	t.Parallel()

	srv, _, _ := newPixeldrainServer(t, http.StatusUnauthorized, "unauthorized")
	u := newTestUploader(srv, "wrong")

	res, err := u.Upload(context.Background(), UploadParams{
		Name: "file.bin",
		Body: strings.NewReader("data"),
		Size: 4,
	})
	require.Error(t, err)
	require.Empty(t, res.URL)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	require.Equal(t, "unauthorized", statusErr.Body)
}

func TestPixeldrainUploadBadResponse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>"},
		{name: "missing id", body: `{"success":true}`},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv, _, _ := newPixeldrainServer(t, http.StatusCreated, tc.body)
			_, err := newTestUploader(srv, "key").Upload(context.Background(), UploadParams{
				Name: "f",
				Body: strings.NewReader("x"),
				Size: 1,
			})
			require.Error(t, err)
		})
	}
}

func TestPixeldrainUploadEmptyFile(t *testing.T) {
	t.Parallel()

	srv, recs, _ := newPixeldrainServer(t, http.StatusCreated, `{"id":"empty"}`)
	res, err := newTestUploader(srv, "key").Upload(context.Background(), UploadParams{
		Name: "empty.txt",
		Body: strings.NewReader(""),
		Size: 0,
	})
	require.NoError(t, err)
	require.Equal(t, "empty", res.ID)
	rec := <-recs
	require.Empty(t, rec.body)
	require.Zero(t, rec.contentLength)
}

func TestPixeldrainUploadMissingKey(t *testing.T) {
	t.Parallel()

	srv, _, hits := newPixeldrainServer(t, http.StatusCreated, `{"id":"x"}`)
	_, err := newTestUploader(srv, "").Upload(context.Background(), UploadParams{
		Name: "f",
		Body: strings.NewReader("x"),
		Size: 1,
	})
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Zero(t, hits.Load())
}

func TestAuthorizationHeader(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "abc", "with:colon", "ünïcødé", strings.Repeat("k", 200)} {
		header := AuthorizationHeader(key)
		require.True(t, strings.HasPrefix(header, "Basic "))

		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
		require.NoError(t, err)
		user, pass, ok := strings.Cut(string(raw), ":")
		require.True(t, ok)
		require.Empty(t, user)
		require.Equal(t, key, pass)

		req := httptest.NewRequest(http.MethodPut, "/", nil)
		req.Header.Set("Authorization", header)
		u, p, ok := req.BasicAuth()
		require.True(t, ok)
		require.Empty(t, u)
		require.Equal(t, key, p)
	}
}
