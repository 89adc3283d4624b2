// Package http builds the transport under the API client: proxy-aware
// connection setup and the bounded retry policy for idempotent requests.
package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"os"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"

	"github.com/ferrite-sec/ferrite-cli/internal/config"
	"github.com/ferrite-sec/ferrite-cli/internal/constants"
)

// ConfigureHTTPClient builds the HTTP client used for all platform calls,
// honoring the configured proxy mode. Firmware teams frequently sit behind
// corporate proxies, so basic and NTLM authentication are first-class.
//
// The returned client has no overall timeout; each operation bounds itself
// through its context.
func ConfigureHTTPClient(cfg *config.Config) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	proxyActive := false

	switch strings.ToLower(cfg.ProxyMode) {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment
		proxyActive = os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""

	case "basic":
		if cfg.ProxyHost == "" {
			// Incomplete saved config; run direct so the user can fix it.
			log.Warn().Msg("Proxy mode is basic but host is missing - falling back to no-proxy mode")
			transport.Proxy = nil
			break
		}
		proxyActive = true
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(cfg), cfg.NoProxy)

		if cfg.ProxyUser != "" && cfg.ProxyPassword == "" {
			log.Warn().Msg("Proxy user configured but password missing - proxy auth disabled until password is set")
		}

	case "ntlm":
		if cfg.ProxyHost == "" {
			log.Warn().Msg("Proxy mode is NTLM but host is missing - falling back to no-proxy mode")
			transport.Proxy = nil
			break
		}
		proxyActive = true
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(cfg), cfg.NoProxy)

		configureHTTP2(transport, proxyActive)

		// NTLM negotiation wraps the transport; it must be the outermost
		// round tripper so it can replay the handshake.
		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.ProxyMode)
	}

	configureHTTP2(transport, proxyActive)

	return &nethttp.Client{
		Transport: transport,
	}, nil
}

// configureHTTP2 enables HTTP/2 with two runtime toggles: DISABLE_HTTP2=true
// forces HTTP/1.1 everywhere, and proxies disable HTTP/2 automatically
// (multiplexing through proxies causes mid-transfer stream errors) unless
// FORCE_HTTP2=true overrides.
func configureHTTP2(tr *nethttp.Transport, proxyActive bool) {
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	disable := os.Getenv("DISABLE_HTTP2") == "true" ||
		(proxyActive && os.Getenv("FORCE_HTTP2") != "true")

	if disable {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}
}

// buildProxyURL constructs a proxy URL from config
func buildProxyURL(cfg *config.Config) *url.URL {
	port := cfg.ProxyPort
	if port == 0 {
		port = 8080 // Default proxy port
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", cfg.ProxyHost, port),
	}

	// Only embed credentials if both user AND password are provided.
	// Empty password in URL can cause auth failures with some proxies.
	if cfg.ProxyUser != "" && cfg.ProxyPassword != "" {
		proxyURL.User = url.UserPassword(cfg.ProxyUser, cfg.ProxyPassword)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy
// bypass list. If noProxy is empty it behaves identically to
// nethttp.ProxyURL; otherwise golang.org/x/net/http/httpproxy matches
// hosts and CIDRs.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			log.Debug().Str("host", req.URL.Host).Msg("Proxy bypass: direct connection")
		} else {
			log.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("Proxied connection")
		}
		return result, err
	}
}

// NeedsProxyPassword returns true if the proxy configuration requires a
// password but one has not been provided. Used by the CLI to decide whether
// an interactive prompt is needed.
func NeedsProxyPassword(cfg *config.Config) bool {
	mode := strings.ToLower(cfg.ProxyMode)
	if mode != "basic" && mode != "ntlm" {
		return false
	}
	return cfg.ProxyUser != "" && cfg.ProxyPassword == ""
}
