package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the vendor's public product API.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

type Options struct {
	BaseURL        string
	Headers        map[string]string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetHeaders(opts.Headers)
	client.SetTransport(newTransport(opts.ConnectTimeout, opts.ReadTimeout))

	return &Client{
		http:   client,
		logger: logger.With("component", "api_client"),
	}
}

// newTransport splits the request timeout into a connect phase (dial and TLS
// handshake) and a read phase. The read timeout bounds the wait for the
// response headers and every socket read of the body after that.
func newTransport(connect, read time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil || read <= 0 {
				return conn, err
			}
			return &readDeadlineConn{Conn: conn, timeout: read}, nil
		},
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
	}
}

// readDeadlineConn pushes the read deadline forward before every read, so a
// stream that stops mid-body fails after timeout instead of blocking.
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}
