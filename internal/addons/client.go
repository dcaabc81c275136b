package addons

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"addonshub-go/internal/config"
	"addonshub-go/internal/constants"
	"addonshub-go/internal/monitoring"
	"addonshub-go/internal/monitoring/tracing"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client talks to the Addons marketplace API. Every operation goes through
// Request, which owns the transport tuning, retries and tracing.
type Client struct {
	cfg *config.Config
	cli *http.Client
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func New(cfg *config.Config) *Client {
	dialTO := durationOrDefault(cfg.DialTimeoutSec, constants.DefaultDialTimeout)
	tlsTO := durationOrDefault(cfg.TLSHandshakeTimeoutSec, constants.DefaultTLSHandshakeTimeout)
	hdrTO := durationOrDefault(cfg.ResponseHeaderTimeoutSec, constants.DefaultResponseHeaderTimeout)

	tr := &http.Transport{
		Proxy: getProxyFunc(cfg.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   dialTO,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsTO,
		ResponseHeaderTimeout: hdrTO,
		ExpectContinueTimeout: constants.DefaultExpectContinueTimeout,
		MaxIdleConns:          constants.BaseMaxIdleConns,
		MaxIdleConnsPerHost:   constants.BaseMaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
	}
	reqTO := durationOrDefault(cfg.RequestTimeoutSec, constants.DefaultRequestTimeout)
	return &Client{cfg: cfg, cli: &http.Client{Transport: tr, Timeout: reqTO}}
}

// getProxyFunc returns appropriate proxy function based on configuration
func getProxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL != "" {
		if parsedURL, err := url.Parse(proxyURL); err == nil {
			return http.ProxyURL(parsedURL)
		}
	}
	// Fall back to environment proxy
	return http.ProxyFromEnvironment
}

// Request performs one marketplace action. Params are layered onto the
// standard envelope (shop_url, platform_version) with sjson. The returned
// bytes are the full response body; callers parse what they need.
func (c *Client) Request(ctx context.Context, action string, params map[string]string) ([]byte, error) {
	body := []byte(`{}`)
	body, _ = sjson.SetBytes(body, "shop_url", c.cfg.ShopURL)
	body, _ = sjson.SetBytes(body, "platform_version", c.cfg.PlatformVersion)
	for k, v := range params {
		body, _ = sjson.SetBytes(body, k, v)
	}

	endpoint := c.cfg.AddonsEndpoint + "/request/" + action

	spanCtx, span := tracing.StartSpan(ctx, "addons", "Addons.Request",
		trace.WithAttributes(
			attribute.String("http.method", http.MethodPost),
			attribute.String("http.url", endpoint),
			attribute.String("addons.action", action),
		))
	defer span.End()
	ctx = spanCtx

	maxRetries := c.cfg.RetryMax
	if maxRetries <= 0 {
		maxRetries = constants.DefaultRetryMax
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.doOnce(ctx, endpoint, body)
		if err == nil && resp.StatusCode < 400 {
			data, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				span.RecordError(readErr)
				span.SetStatus(codes.Error, readErr.Error())
				monitoring.RecordMarketplaceRequest(action, "read_error")
				return nil, fmt.Errorf("read marketplace response: %w", readErr)
			}
			span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
			span.SetStatus(codes.Ok, "")
			monitoring.RecordMarketplaceRequest(action, strconv.Itoa(resp.StatusCode))
			return data, nil
		}

		retry, wait := c.shouldRetry(resp, err, attempt)
		if resp != nil {
			span.AddEvent("attempt", trace.WithAttributes(
				attribute.Int("http.status_code", resp.StatusCode),
				attribute.Int("retry.attempt", attempt),
			))
			// drain so the connection can be reused
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("marketplace %s: HTTP %d", action, resp.StatusCode)
		}
		if err != nil {
			span.RecordError(err)
			lastErr = err
		}
		if !retry || attempt >= maxRetries {
			break
		}
		monitoring.RecordMarketplaceRetry(action)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			span.SetStatus(codes.Error, ctx.Err().Error())
			monitoring.RecordMarketplaceRequest(action, "canceled")
			return nil, ctx.Err()
		}
	}

	span.SetStatus(codes.Error, lastErr.Error())
	monitoring.RecordMarketplaceRequest(action, "error")
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "AddonsHub/"+c.cfg.PlatformVersion)
	return c.cli.Do(req)
}

func (c *Client) shouldRetry(resp *http.Response, err error, attempt int) (bool, time.Duration) {
	// Do not retry on context cancellation/deadline
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, 0
		}
		if c.cfg.RetryOnNetworkError {
			return true, c.nextBackoff(attempt)
		}
		return false, 0
	}
	if resp == nil {
		return false, 0
	}
	code := resp.StatusCode
	if code == 429 {
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			return true, d
		}
		return true, c.nextBackoff(attempt)
	}
	if c.cfg.RetryOn5xx && code >= 500 && code <= 599 {
		if code == 503 {
			if d, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				return true, d
			}
		}
		return true, c.nextBackoff(attempt)
	}
	if code == 408 || code == 425 { // request timeout/too early
		return true, c.nextBackoff(attempt)
	}
	return false, 0
}

// CheckCustomer authenticates merchant credentials against the marketplace.
// A nil result is only returned alongside an error.
func (c *Client) CheckCustomer(ctx context.Context, username, password string) (*AuthResult, error) {
	body, err := c.Request(ctx, "check_customer", map[string]string{
		"username_addons": username,
		"password_addons": password,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		IsContributor: gjson.GetBytes(body, "is_contributor").Bool(),
		Errors:        parseErrors(body),
	}, nil
}

// ListModules fetches the marketplace module list for this shop.
func (c *Client) ListModules(ctx context.Context) ([]ModuleInfo, error) {
	body, err := c.Request(ctx, "native", nil)
	if err != nil {
		return nil, err
	}
	if errs := parseErrors(body); len(errs) > 0 {
		return nil, fmt.Errorf("marketplace list: %s", errs[0].Label)
	}
	var out []ModuleInfo
	gjson.GetBytes(body, "modules").ForEach(func(_, item gjson.Result) bool {
		out = append(out, ModuleInfo{
			Name:        item.Get("name").String(),
			DisplayName: item.Get("display_name").String(),
			Version:     item.Get("version").String(),
			Description: item.Get("description").String(),
		})
		return true
	})
	return out, nil
}

// DownloadModule fetches the module archive for the given module name.
func (c *Client) DownloadModule(ctx context.Context, name string) ([]byte, error) {
	body, err := c.Request(ctx, "module_download", map[string]string{"module_name": name})
	if err != nil {
		return nil, err
	}
	if errs := parseErrors(body); len(errs) > 0 {
		return nil, fmt.Errorf("marketplace download %s: %s", name, errs[0].Label)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("marketplace download %s: empty archive", name)
	}
	return body, nil
}
