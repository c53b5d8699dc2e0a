// Package discussion validates the forum link attached to a proposal.
package discussion

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manifest-network/upgrade-helper/internal/failure"
)

// ErrInvalidLink is returned for a link outside the forum or one that does
// not resolve.
var ErrInvalidLink = errors.New("invalid discussion link")

// Checker verifies discussion links with a GET request.
type Checker struct {
	http   *resty.Client
	prefix string
}

// NewChecker accepts links starting with prefix.
func NewChecker(prefix string, timeout time.Duration) *Checker {
	return &Checker{http: resty.New().SetTimeout(timeout), prefix: prefix}
}

// Check returns nil when link belongs to the forum and can be fetched.
func (c *Checker) Check(ctx context.Context, link string) error {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidLink, link)
	}
	if c.prefix != "" && !strings.HasPrefix(link, c.prefix) {
		return fmt.Errorf("%w: %s does not start with %s", ErrInvalidLink, link, c.prefix)
	}

	resp, err := c.http.R().SetContext(ctx).Get(link)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return failure.Transient(fmt.Errorf("failed to reach %s: %w", link, err))
	}
	if resp.IsError() {
		return failure.FromHTTPStatus(resp.StatusCode(),
			fmt.Errorf("%w: %s returned status %d", ErrInvalidLink, link, resp.StatusCode()))
	}
	return nil
}
