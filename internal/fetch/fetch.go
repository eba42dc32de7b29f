package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrFetchFailed reports a transport failure or a non-2xx response.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrTimeout reports an expired fetch deadline.
	ErrTimeout = errors.New("fetch timed out")
)

// Response is a fetched tile body plus the caching headers of interest.
type Response struct {
	Data         []byte
	Expires      string
	CacheControl string
}

// Func fetches the resource at url. Implementations must observe ctx.
type Func func(ctx context.Context, url string) (*Response, error)

// HTTP returns a Func backed by client, or http.DefaultClient when nil.
func HTTP(client *http.Client) Func {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, url string) (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, wrapCtxErr(ctx, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, url, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, wrapCtxErr(ctx, err)
		}
		return &Response{
			Data:         data,
			Expires:      resp.Header.Get("Expires"),
			CacheControl: resp.Header.Get("Cache-Control"),
		}, nil
	}
}

func wrapCtxErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return context.Canceled
	default:
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
}

// ExpandURL substitutes the {z}, {x} and {y} placeholders of a tile URL
// template.
func ExpandURL(template string, z, x, y int) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	)
	return r.Replace(template)
}
