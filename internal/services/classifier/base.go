package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"CreditScore/internal/domain/models"
	xhttp "CreditScore/pkg/http"
)

// httpBase posts JSON to a model server. It never retries: a failed
// inference is reported to the caller as is.
type httpBase struct {
	baseURL string
	client  *xhttp.Client
}

func newHTTPBase(baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *httpBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	opts = append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)
	return &httpBase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(opts...),
	}
}

// postJSON posts payload to path under baseURL and decodes JSON into dest.
// 400 and 422 answers mean the server rejected the row layout.
func (b *httpBase) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("model http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err == nil {
		return nil
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnprocessableEntity || se.Code == http.StatusBadRequest) {
		return &models.SchemaError{Err: fmt.Errorf("post %s: %w", path, err)}
	}
	return fmt.Errorf("post %s: %w", path, err)
}
