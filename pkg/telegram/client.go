// Package telegram is a small Bot API client covering what the catalog sync
// needs: the updates feed, file downloads and message deletion.
package telegram

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/internal/transport"
	"github.com/modelshelf/modelshelf/pkg/constants"
	pkgerrors "github.com/modelshelf/modelshelf/pkg/errors"
	"github.com/modelshelf/modelshelf/pkg/logging"
)

const service = "telegram"

// Client talks to the Bot API with one bot token.
type Client struct {
	token       string
	apiBase     string
	pollTimeout time.Duration
	transport   *transport.Client
	filePaths   *expirable.LRU[string, string]
}

// Option configures a Client.
type Option func(*options)

type options struct {
	apiBase     string
	pollTimeout time.Duration
	transport   []transport.Option
}

// WithAPIBase overrides the Bot API root (used by tests and self-hosted
// API servers).
func WithAPIBase(base string) Option {
	return func(o *options) {
		if base != "" {
			o.apiBase = strings.TrimRight(base, "/")
		}
	}
}

// WithPollTimeout sets the long-poll timeout sent with getUpdates.
func WithPollTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.pollTimeout = d
		}
	}
}

// WithHTTPClient sets the HTTP client used for all calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.transport = append(o.transport, transport.WithHTTPClient(hc))
	}
}

// WithRateLimit limits outgoing calls.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.transport = append(o.transport, transport.WithRateLimit(rps, burst))
	}
}

// New creates a client for token.
func New(token string, opts ...Option) *Client {
	o := &options{
		apiBase:     constants.DefaultAPIBase,
		pollTimeout: constants.DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Client{
		token:       token,
		apiBase:     o.apiBase,
		pollTimeout: o.pollTimeout,
		transport:   transport.New(service, o.transport...),
		filePaths:   expirable.NewLRU[string, string](constants.FilePathCacheSize, nil, constants.FilePathCacheTTL),
	}
}

// GetUpdates fetches one page of updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(int(c.pollTimeout/time.Second)))

	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout+constants.DefaultHTTPTimeout)
	defer cancel()

	var updates []Update
	if err := call(ctx, c, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// AllUpdates pages through the feed from offset until an empty page and
// returns every update received together with the next offset (last update
// id plus one, or offset when nothing arrived). When a page fails the
// updates received so far are returned along with the error.
func (c *Client) AllUpdates(ctx context.Context, offset int64) ([]Update, int64, error) {
	var all []Update
	next := offset
	for {
		page, err := c.GetUpdates(ctx, next)
		if err != nil {
			return all, next, err
		}
		if len(page) == 0 {
			return all, next, nil
		}
		all = append(all, page...)
		next = page[len(page)-1].UpdateID + 1

		logging.FromContext(ctx).Debug().
			Int("page", len(page)).
			Int64("next_offset", next).
			Msg("Fetched updates page")
	}
}

// GetFile resolves a file id to its download path. Results are cached for
// less than the validity of a Bot API file path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	if p, ok := c.filePaths.Get(fileID); ok {
		metrics.FilePathCacheHits.Inc()
		return &File{FileID: fileID, FilePath: p}, nil
	}
	metrics.FilePathCacheMisses.Inc()

	params := url.Values{}
	params.Set("file_id", fileID)

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultHTTPTimeout)
	defer cancel()

	var f File
	if err := call(ctx, c, "getFile", params, &f); err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, pkgerrors.NewAPIError(service, "getFile", 0, "no file_path in response")
	}
	c.filePaths.Add(fileID, f.FilePath)
	return &f, nil
}

// Download streams the content of fileID into w.
func (c *Client) Download(ctx context.Context, fileID string, w io.Writer) error {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DownloadTimeout)
	defer cancel()

	resp, err := c.transport.Get(ctx, "download", c.apiBase+"/file/bot"+c.token+"/"+f.FilePath)
	if err != nil {
		return err
	}
	if err := transport.CheckStatus(resp, service, "download"); err != nil {
		c.filePaths.Remove(fileID)
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if _, err := io.Copy(w, resp.Body); err != nil {
		return pkgerrors.WrapAPI(service, "download", 0, err)
	}
	return nil
}

// DeleteMessage deletes a message from a chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("message_id", strconv.FormatInt(messageID, 10))

	ctx, cancel := context.WithTimeout(ctx, constants.DefaultHTTPTimeout)
	defer cancel()

	var ok bool
	return call(ctx, c, "deleteMessage", params, &ok)
}

// call invokes a Bot API method and decodes its result.
func call[T any](ctx context.Context, c *Client, method string, params url.Values, out *T) error {
	endpoint := c.apiBase + "/bot" + c.token + "/" + method
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	resp, err := c.transport.Get(ctx, method, endpoint)
	if err != nil {
		return err
	}

	var env response[T]
	if err := transport.DecodeResponse(resp, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return pkgerrors.NewAPIError(service, method, resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return pkgerrors.WrapAPI(service, method, resp.StatusCode, err)
	}
	if !env.OK {
		status := env.ErrorCode
		if status == 0 {
			status = resp.StatusCode
		}
		return pkgerrors.NewAPIError(service, method, status, env.Description)
	}
	*out = env.Result
	return nil
}
