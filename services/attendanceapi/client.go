package attendanceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	attendancesPath = "/api/attendances"
	maxPages        = 10000
)

type (
	listResponse struct {
		Status      string              `json:"status"`
		Message     string              `json:"message"`
		Attendances []attendance.Record `json:"attendances"`
	}

	// APIError is returned when the attendance API answers with an error.
	APIError struct {
		StatusCode int
		Message    string
	}
)

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("attendance api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("attendance api: %d: %s", e.StatusCode, e.Message)
}

// Client reads attendances from a remote attendance API.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	pageSize int
	logger   core.Logger
}

var _ attendance.Source = (*Client)(nil)

func NewClient(conf *core.Config, logger core.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(conf.Attendance.APIBaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing attendance api base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid attendance api base url %q", conf.Attendance.APIBaseURL)
	}
	pageSize := conf.Attendance.APIPageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		baseURL:  base,
		http:     &http.Client{Timeout: conf.Attendance.APITimeout},
		pageSize: pageSize,
		logger:   logger,
	}, nil
}

// ListAttendances fetches every page until a short page is returned.
func (c *Client) ListAttendances(ctx context.Context) ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	for page := 1; page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching page %d", page)
		}
		recs = append(recs, batch...)
		if len(batch) < c.pageSize {
			return recs, nil
		}
		if len(batch) > c.pageSize { // pagination ignored by the server
			c.logger.Warn(fmt.Sprintf("attendance api returned %d records for a page of %d", len(batch), c.pageSize))
			return recs, nil
		}
	}
	c.logger.Warn(fmt.Sprintf("attendance api: stopped after %d pages", maxPages))
	return recs, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]attendance.Record, error) {
	u := *c.baseURL
	u.Path += attendancesPath
	q := make(url.Values)
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending request")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}

	var data listResponse
	if err = json.Unmarshal(body, &data); err != nil {
		if res.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{StatusCode: res.StatusCode}
		}
		return nil, errors.Wrap(err, "decoding response")
	}
	if res.StatusCode >= http.StatusBadRequest || data.Status == "error" {
		return nil, &APIError{StatusCode: res.StatusCode, Message: data.Message}
	}
	return data.Attendances, nil
}
