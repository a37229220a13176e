package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// DefaultEndpoint is the Pollinations prompt-to-image service.
const DefaultEndpoint = "https://image.pollinations.ai/prompt"

// ErrNoImage means the image service did not produce an image.
var ErrNoImage = errors.New("image service returned no image")

// Source renders an image for a prompt.
type Source interface {
	Fetch(ctx context.Context, prompt string, width, height int, model string) ([]byte, error)
}

// Fetcher retrieves generated images over HTTP
type Fetcher struct {
	HTTPClient  *http.Client
	Endpoint    string
	Attempts    int
	BackoffStep time.Duration
}

// NewFetcher creates a new image fetcher with two attempts and a 30s request timeout
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Endpoint:    DefaultEndpoint,
		Attempts:    2,
		BackoffStep: 2 * time.Second,
	}
}

// ImageURL builds the request URL for a prompt.
func (f *Fetcher) ImageURL(prompt string, width, height int, model string) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("model", model)
	q.Set("nologo", "true")
	q.Set("enhance", "true")
	return strings.TrimRight(f.Endpoint, "/") + "/" + url.PathEscape(prompt) + "?" + q.Encode()
}

// Fetch downloads the image for prompt, waiting attempt*BackoffStep between
// attempts. Exhausting the attempts yields an error wrapping ErrNoImage.
func (f *Fetcher) Fetch(ctx context.Context, prompt string, width, height int, model string) ([]byte, error) {
	imageURL := f.ImageURL(prompt, width, height, model)
	attempts := max(f.Attempts, 1)

	var (
		data    []byte
		attempt int
	)
	err := retry.Do(
		func() error {
			attempt++
			body, err := f.download(ctx, imageURL)
			if err != nil {
				return err
			}
			data = body
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.LastErrorOnly(true),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(attempt) * f.BackoffStep
		}),
		retry.OnRetry(func(_ uint, err error) {
			slog.Warn("Image request failed", "attempt", attempt, "attempts", attempts, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}

	slog.Info("Image generated", "bytes", len(data), "model", model)
	return data, nil
}

// download performs a single request and checks that an image came back
func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("image service returned status %d", resp.StatusCode)
	}

	if contentType := resp.Header.Get("Content-Type"); !strings.Contains(contentType, "image") {
		return nil, fmt.Errorf("response was not an image: %q", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}
