package selfupdate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serverReturning(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name":%q,"body":"notes","html_url":"http://example.com"}`, tag)
	}))
}

func newCheckerAgainst(srv *httptest.Server) *Checker {
	c := NewChecker("acme", "otaagent")
	c.http = srv.Client()
	return c
}

func TestCheckForUpdateReportsNewerRelease(t *testing.T) {
	srv := serverReturning(t, "v2.0.0")
	defer srv.Close()
	c := newCheckerAgainst(srv)
	// redirect the hardcoded github API host by swapping the transport's
	// destination via the test server's own loopback; simplest is to
	// exercise the HTTP-shape logic directly through a custom round-trip.
	c.http.Transport = roundTripToServer{srv}

	rel, err := c.CheckForUpdate(context.Background(), "v1.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel == nil || rel.TagName != "v2.0.0" {
		t.Fatalf("expected release v2.0.0, got %+v", rel)
	}
}

func TestCheckForUpdateReturnsNilWhenCurrent(t *testing.T) {
	srv := serverReturning(t, "v1.0.0")
	defer srv.Close()
	c := newCheckerAgainst(srv)
	c.http.Transport = roundTripToServer{srv}

	rel, err := c.CheckForUpdate(context.Background(), "v1.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel != nil {
		t.Errorf("expected no update, got %+v", rel)
	}
}

func TestCheckForUpdateRequiresOwnerAndRepo(t *testing.T) {
	c := NewChecker("", "")
	if _, err := c.CheckForUpdate(context.Background(), "v1.0.0"); err == nil {
		t.Fatal("expected an error for a blank owner/repo")
	}
}

// roundTripToServer redirects every request to srv regardless of the
// original host, so CheckForUpdate's hardcoded github.com URL can be
// exercised against an httptest.Server.
type roundTripToServer struct {
	srv *httptest.Server
}

func (r roundTripToServer) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	target, err := http.NewRequest(req.Method, r.srv.URL, nil)
	if err != nil {
		return nil, err
	}
	clone.URL = target.URL
	clone.Host = target.Host
	return http.DefaultTransport.RoundTrip(clone)
}
