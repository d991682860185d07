// Package fetch retrieves raw markup over HTTP.
package fetch

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"webshape/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	// Timeout bounds each request, 30s if unset. A hung fetch can
	// otherwise block a scrape indefinitely.
	Timeout time.Duration
	// BypassProtection wraps the transport to get past common
	// bot-protection layers.
	BypassProtection bool
}

func NewClient(opts ClientOptions) (Client, error) {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return Client{}, err
	}
	client.SetCookieJar(jar)

	if opts.BypassProtection {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", userAgent)

	telemetry.InstrumentResty(client, "webshape.lib.fetch")

	return Client{http: client}, nil
}

// Get fetches the raw markup at url. Transport errors are returned to
// the caller unmodified, a non-2xx status is an error too.
func (c Client) Get(ctx context.Context, url string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("fetch %s: status %s", url, res.Status())
	}
	return res.String(), nil
}
