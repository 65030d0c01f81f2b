package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ProbeFunc checks that the target origin accepts connections.
type ProbeFunc func(ctx context.Context, url string, timeout time.Duration) error

// HTTPProbe issues a GET against url. Any HTTP response counts as
// reachable; only transport failures are errors.
func HTTPProbe(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("target %s unreachable: %w", url, err)
	}
	resp.Body.Close()
	return nil
}
