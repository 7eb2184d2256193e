package ytweb

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	_ "github.com/bdandy/go-socks4" // registers socks4:// with x/net/proxy
	"golang.org/x/net/proxy"
)

// NewHTTPClient returns an HTTP client, optionally routed through proxyStr
// (http, https, socks5 or socks4 URL). An invalid proxy falls back to a direct
// client with a warning.
func NewHTTPClient(proxyStr string) *http.Client {
	const timeout = 15 * time.Second
	if proxyStr == "" {
		return &http.Client{Timeout: timeout}
	}

	transport, err := proxyTransport(proxyStr)
	if err != nil {
		log.Printf("[WARN] YouTube proxy %q unusable, going direct: %v", proxyStr, err)
		return &http.Client{Timeout: timeout}
	}
	log.Printf("[INFO] YouTube requests go through %s proxy", transport.scheme)
	return &http.Client{Timeout: timeout, Transport: transport.Transport}
}

type schemeTransport struct {
	*http.Transport
	scheme string
}

func proxyTransport(proxyStr string) (*schemeTransport, error) {
	u, err := url.Parse(proxyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy format: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return &schemeTransport{&http.Transport{Proxy: http.ProxyURL(u)}, u.Scheme}, nil
	case "socks5", "socks4":
		dialer, err := proxy.FromURL(u, &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 10 * time.Second})
		if err != nil {
			return nil, fmt.Errorf("%s dialer error: %w", u.Scheme, err)
		}
		t := &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				if cd, ok := dialer.(proxy.ContextDialer); ok {
					return cd.DialContext(ctx, network, addr)
				}
				return dialer.Dial(network, addr)
			},
		}
		return &schemeTransport{t, u.Scheme}, nil
	}
	return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
}
