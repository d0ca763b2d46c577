package transcriber

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whisperkey/metrics"
)

// NetworkMetrics breaks one request down by connection phase. Phases that
// did not happen (DNS on a reused connection, say) stay zero.
type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func (m *NetworkMetrics) Dict() *zerolog.Event {
	conn := "new"
	if m.ConnReused {
		conn = "reused"
	}
	return zerolog.Dict().
		Str("conn", conn).
		Dur("dns", m.DNS).
		Dur("tls", m.TLS).
		Dur("ttfb", m.TTFB).
		Dur("total", m.Total)
}

type netTraceKey struct{}

// withNetTrace returns a context whose requests, when sent through a
// tracedTransport, fill in the returned metrics. The metrics are complete
// once the response body has been read or closed.
func withNetTrace(ctx context.Context) (context.Context, *NetworkMetrics) {
	m := &NetworkMetrics{}
	return context.WithValue(ctx, netTraceKey{}, m), m
}

// tracedTransport times every request phase and reports it to the
// request_phase_seconds histogram under the backend label.
type tracedTransport struct {
	base    http.RoundTripper
	backend string
}

// newHTTPClient returns a client that keeps connections warm between
// recordings and traces each request.
func newHTTPClient(backend string) *http.Client {
	return &http.Client{Transport: &tracedTransport{
		backend: backend,
		base: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}}
}

func (t *tracedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m, ok := req.Context().Value(netTraceKey{}).(*NetworkMetrics)
	if !ok {
		m = &NetworkMetrics{}
	}

	var getConnStart, dnsStart, tcpStart, tlsStart time.Time
	var gotConn, wroteHeaders, wroteRequest, firstByte time.Time
	trace := &httptrace.ClientTrace{
		GetConn: func(string) { getConnStart = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			gotConn = time.Now()
			m.ConnWait = gotConn.Sub(getConnStart)
			m.ConnReused = info.Reused
		},
		DNSStart:          func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:           func(httptrace.DNSDoneInfo) { m.DNS = time.Since(dnsStart) },
		ConnectStart:      func(_, _ string) { tcpStart = time.Now() },
		ConnectDone:       func(_, _ string, _ error) { m.TCP = time.Since(tcpStart) },
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(cs tls.ConnectionState, _ error) {
			m.TLS = time.Since(tlsStart)
			m.TLSProtocol = cs.NegotiatedProtocol
		},
		WroteHeaders: func() {
			wroteHeaders = time.Now()
			m.ReqHeaders = wroteHeaders.Sub(gotConn)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			wroteRequest = time.Now()
			m.ReqBody = wroteRequest.Sub(wroteHeaders)
		},
		GotFirstResponseByte: func() {
			firstByte = time.Now()
			m.TTFB = firstByte.Sub(wroteRequest)
		},
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req.WithContext(httptrace.WithClientTrace(req.Context(), trace)))
	if err != nil {
		m.Total = time.Since(start)
		return nil, err
	}
	resp.Body = &tracedBody{ReadCloser: resp.Body, done: func() {
		if !firstByte.IsZero() {
			m.Download = time.Since(firstByte)
		}
		m.Total = time.Since(start)
		t.observe(m)
	}}
	return resp, nil
}

func (t *tracedTransport) observe(m *NetworkMetrics) {
	for phase, d := range map[string]time.Duration{
		"dns":      m.DNS,
		"connect":  m.TCP,
		"tls":      m.TLS,
		"upload":   m.ReqBody,
		"ttfb":     m.TTFB,
		"download": m.Download,
		"total":    m.Total,
	} {
		if d > 0 {
			metrics.RequestPhase.WithLabelValues(t.backend, phase).Observe(d.Seconds())
		}
	}
}

// tracedBody runs done once, at EOF or Close, whichever comes first.
type tracedBody struct {
	io.ReadCloser
	once sync.Once
	done func()
}

func (b *tracedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err == io.EOF {
		b.once.Do(b.done)
	}
	return n, err
}

func (b *tracedBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.done)
	return err
}

// warmConnection issues a HEAD request so the next upload reuses an
// established TLS session. It returns the handshake time, or zero.
func warmConnection(client *http.Client, url string) time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx, m := withNetTrace(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return m.TLS
}
