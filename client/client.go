package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Amiequan/meilisearch/server/dumps"
)

// Error returned by the HTTP API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Returns the error message.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%s, HTTP status %d)", e.Message, e.Code, e.StatusCode)
}

// Returned by WaitForDump when the dump doesn't finish on time.
type DumpWaitTimeoutError struct {
	UID string
}

// Returns the error message.
func (e *DumpWaitTimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for the dump %s", e.UID)
}

// Client of the dump API. It is safe for concurrent use.
type DumpClient struct {
	innerClient *resty.Client
	baseURL     string
}

// Instantiates the client of the server listening at the base URL.
func NewDumpClient(baseURL string) *DumpClient {
	return &DumpClient{
		innerClient: resty.New(),
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Sets custom timeout for the requests.
func (c *DumpClient) SetRequestTimeout(timeout time.Duration) {
	c.innerClient.SetTimeout(timeout)
}

// Appends the path to the base URL.
func (c *DumpClient) makeURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Starts a new dump on the server.
func (c *DumpClient) CreateDump(ctx context.Context) (*dumps.DumpInfo, error) {
	var info dumps.DumpInfo
	var apiErr APIError
	response, err := c.innerClient.R().
		SetContext(ctx).
		SetResult(&info).
		SetError(&apiErr).
		Post(c.makeURL("dumps"))
	if err != nil {
		return nil, errors.Wrap(err, "cannot send the create dump request")
	}
	if response.IsError() {
		apiErr.StatusCode = response.StatusCode()
		return nil, &apiErr
	}
	return &info, nil
}

// Fetches the status of the dump.
func (c *DumpClient) GetDumpStatus(ctx context.Context, uid string) (*dumps.DumpInfo, error) {
	var info dumps.DumpInfo
	var apiErr APIError
	response, err := c.innerClient.R().
		SetContext(ctx).
		SetResult(&info).
		SetError(&apiErr).
		Get(c.makeURL(fmt.Sprintf("dumps/%s/status", url.PathEscape(uid))))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot fetch the status of the dump %s", uid)
	}
	if response.IsError() {
		apiErr.StatusCode = response.StatusCode()
		return nil, &apiErr
	}
	return &info, nil
}

// Polls the dump status until the dump finishes or the timeout elapses.
// It returns the final record; a failed dump is not an error.
func (c *DumpClient) WaitForDump(ctx context.Context, uid string, interval, timeout time.Duration) (*dumps.DumpInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		info, err := c.GetDumpStatus(ctx, uid)
		switch {
		case err == nil && info.IsFinished():
			return info, nil
		case err == nil:
			log.WithField("uid", uid).Debug("Dump is still in progress")
		case ctx.Err() == nil:
			return nil, err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, &DumpWaitTimeoutError{UID: uid}
			}
			return nil, errors.WithStack(ctx.Err())
		case <-ticker.C:
		}
	}
}
