package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/wildscope/wildscope-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func staticTokenSource(token string) *tokenSource {
	return &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			return token, time.Now().Add(time.Hour), nil
		},
	}
}

func newTestClient(rt roundTripFunc) *Client {
	return &Client{
		httpClient:    &http.Client{Transport: rt},
		defaultBucket: "camera-uploads",
		tokenSource:   staticTokenSource("tok"),
	}
}

func TestDownloadObjectSuccess(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	var gotURL, gotAuth string

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		gotAuth = req.Header.Get("Authorization")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(payload)),
		}, nil
	})

	data, err := client.DownloadObject(context.Background(), "", "proj/cam07/IMG_0001.JPG")
	if err != nil {
		t.Fatalf("DownloadObject: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("unexpected payload %v", data)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if !strings.Contains(gotURL, "/b/camera-uploads/o/") || !strings.Contains(gotURL, "alt=media") {
		t.Fatalf("unexpected url %q", gotURL)
	}
	if !strings.Contains(gotURL, "proj%2Fcam07%2FIMG_0001.JPG") {
		t.Fatalf("object name should be path-escaped, got %q", gotURL)
	}
}

func TestDownloadObjectNotFound(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("not found")),
		}, nil
	})

	_, err := client.DownloadObject(context.Background(), "", "missing.jpg")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected coded not-found error, got %v", err)
	}
	if pkgerrors.IsRetryable(err) {
		t.Fatalf("missing object should be terminal")
	}
}

func TestDownloadObjectServerError(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Status:     "503 Service Unavailable",
			Body:       io.NopCloser(strings.NewReader("backend down")),
		}, nil
	})

	_, err := client.DownloadObject(context.Background(), "", "x.jpg")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !pkgerrors.IsRetryable(err) {
		t.Fatalf("dependency failure should be retryable")
	}
}

func TestTokenSourceCachesUntilExpiry(t *testing.T) {
	calls := 0
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			calls++
			return "tok", time.Now().Add(time.Hour), nil
		},
	}

	for i := 0; i < 3; i++ {
		if _, err := ts.Token(context.Background()); err != nil {
			t.Fatalf("Token: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected single fetch, got %d", calls)
	}
}

func TestDownloadObjectRequiresName(t *testing.T) {
	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("should not be called")
	})
	if _, err := client.DownloadObject(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty object name")
	}
}
