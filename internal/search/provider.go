package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/ppiankov/plagscan/internal/model"
)

// Provider is a web search backend. Implementations must be safe for
// concurrent use; the HTTP client is supplied per call so that every request
// goes through the scan's own transport.
type Provider interface {
	Name() string
	Search(ctx context.Context, hc *http.Client, query string, n int) ([]model.SearchHit, error)
}

// redactURLError strips the query string from a transport error's URL.
// Provider credentials ride in the query, and these errors end up in logs.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			u.User = nil
			uerr.URL = u.String()
		} else {
			uerr.URL = "<redacted>"
		}
	}
	return err
}
