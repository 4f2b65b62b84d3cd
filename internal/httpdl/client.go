// Package httpdl implements the resumable HTTPS download engine: a
// ranged GET against a blob-storage URL, streamed into a sink with a
// low-speed watchdog, mapped to the coarse {Ok, Timeout, HttpError,
// WriteError, Cancelled} outcome the Worker consumes.
package httpdl

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

// Outcome is the tagged result of a download attempt, deliberately
// coarser than the union of transport error codes, filesystem error
// codes, and HTTP status codes the underlying libraries can produce
// (spec.md §9's "error-code propagation" design note).
type Outcome int

const (
	Ok Outcome = iota
	Timeout
	HTTPError
	WriteError
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Timeout:
		return "timeout"
	case HTTPError:
		return "http_error"
	case WriteError:
		return "write_error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

const (
	// azureBlobRangeVersion is required for Azure Blob Storage to honor
	// Range requests against a page/block blob endpoint.
	azureBlobRangeVersion = "2019-02-02"

	lowSpeedMinBytesPerSec = 10
	lowSpeedMaxStall       = 30 * time.Second

	defaultUserAgent = "otaagent/1.0"
)

// Client performs resumable ranged GETs for the OTA download engine.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient builds a Client whose TLS trust root is the CA bundle at
// caBundlePath (resolved relative to the agent's read-only image package,
// per spec.md §6). If caBundlePath is empty the system trust store is
// used instead.
func NewClient(caBundlePath string) (*Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if caBundlePath != "" {
		pem, err := os.ReadFile(caBundlePath)
		if err != nil {
			return nil, fmt.Errorf("httpdl: read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("httpdl: no certificates found in %s", caBundlePath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	return &Client{
		http:      &http.Client{Transport: transport},
		userAgent: defaultUserAgent,
	}, nil
}

// SetUserAgent overrides the User-Agent header sent with every request,
// letting internal/config's operator-facing override take effect.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// Sink is the capability the Download Engine appends bytes to: the
// currently-open image file, positioned wherever the Worker left it
// (spec.md §9's "sink abstraction" design note, replacing the source's
// callback-driven inversion of control).
type Sink interface {
	io.Writer
}

// Get issues a GET against effectiveURL (already url+"?"+sas), resuming
// from resumeOffset when it is greater than zero, and appends each
// response chunk to sink. It returns Ok once the response body is fully
// drained; the caller is responsible for comparing the resulting file
// size against the expected total (spec.md §4.4) and for mapping Ok-sized
// responses to a verification step.
func (c *Client) Get(ctx context.Context, effectiveURL string, resumeOffset int64, sink Sink) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchdog := newLowSpeedWatchdog(lowSpeedMinBytesPerSec, lowSpeedMaxStall, cancel)
	go watchdog.run()
	defer watchdog.stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, effectiveURL, nil)
	if err != nil {
		return HTTPError, fmt.Errorf("httpdl: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("x-ms-version", azureBlobRangeVersion)
	if resumeOffset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeOffset))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled && watchdog.timedOut() {
			return Timeout, fmt.Errorf("httpdl: low-speed watchdog fired: %w", err)
		}
		if ctx.Err() != nil {
			return Cancelled, ctx.Err()
		}
		return HTTPError, fmt.Errorf("httpdl: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return HTTPError, fmt.Errorf("httpdl: unexpected status %d", resp.StatusCode)
	}

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			written, writeErr := sink.Write(buf[:n])
			if writeErr != nil {
				return WriteError, fmt.Errorf("httpdl: sink write: %w", writeErr)
			}
			if written < n {
				// A short write is a fatal terminator: the client must
				// treat it as evidence the underlying filesystem can no
				// longer accept data for this transfer.
				return WriteError, fmt.Errorf("httpdl: short write: offered %d, wrote %d", n, written)
			}
			watchdog.observe(int64(written))
		}
		if readErr == io.EOF {
			return Ok, nil
		}
		if readErr != nil {
			if ctx.Err() == context.Canceled && watchdog.timedOut() {
				return Timeout, fmt.Errorf("httpdl: low-speed watchdog fired: %w", readErr)
			}
			if ctx.Err() != nil {
				return Cancelled, ctx.Err()
			}
			return HTTPError, fmt.Errorf("httpdl: body read: %w", readErr)
		}
	}
}
