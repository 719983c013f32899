package browser

import (
	"context"
	"io"
	"net"
	"net/http"

	utls "github.com/refraction-networking/utls"

	"github.com/Suleiman700/mercantile-scraper/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Preflight checks that the portal answers over HTTPS before a browser is
// launched for it. The request carries a Chrome TLS fingerprint (utls) so the
// portal's bot filter sees the same ClientHello the real session will send.
//
// A failed preflight costs one TCP round trip instead of a Chromium launch.
func Preflight(ctx context.Context, loginURL string) error {
	transport := &http.Transport{
		DialTLSContext: dialTLSChrome,
	}
	client := &http.Client{Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "preflight: build request", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "he-IL,he;q=0.9,en;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr(err) {
			return models.NewScrapeError(models.ErrCodeNavTimeout, "preflight: portal unreachable", err)
		}
		return models.NewScrapeError(models.ErrCodeNavigation, "preflight: portal unreachable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 500 {
		return models.NewScrapeError(models.ErrCodeNavigation,
			"preflight: portal returned "+resp.Status, nil)
	}
	return nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
	}, utls.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
