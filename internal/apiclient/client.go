// Package apiclient reads records from the school records REST backend.
//
// Every accessor swallows its failure: a non-2xx status, a transport error,
// a malformed body or a record that fails validation all yield the empty
// result (an empty slice or nil) and a log line. Callers cannot tell a
// failure from an empty backend.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"scholarhub/internal/metrics"
	"scholarhub/internal/records"
)

// ErrUnexpectedStatus is returned by the internal fetch for any non-2xx answer.
var ErrUnexpectedStatus = errors.New("unexpected backend status")

// Client calls the records backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	log     *zap.Logger
	metrics *metrics.Backend
	tracer  trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics records fetch outcomes in m.
func WithMetrics(m *metrics.Backend) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// New creates a client with the given request timeout.
func New(baseURL string, timeout time.Duration, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		log:     log.Named("apiclient"),
		tracer:  otel.Tracer("scholarhub/apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewBackend(nil)
	}
	return c
}

// Students lists every student.
func (c *Client) Students(ctx context.Context) []records.Student {
	var out []records.Student
	if err := c.fetch(ctx, "students", "/api/students/", &out); err != nil || out == nil {
		return []records.Student{}
	}
	return out
}

// Student returns the consolidated profile of one student, or nil.
func (c *Client) Student(ctx context.Context, id string) *records.StudentProfile {
	var out *records.StudentProfile
	if err := c.fetch(ctx, "student", "/api/students/"+url.PathEscape(id), &out); err != nil {
		return nil
	}
	return out
}

// Courses lists every course.
func (c *Client) Courses(ctx context.Context) []records.Course {
	var out []records.Course
	if err := c.fetch(ctx, "courses", "/api/courses/", &out); err != nil || out == nil {
		return []records.Course{}
	}
	return out
}

// Grades lists every grade.
func (c *Client) Grades(ctx context.Context) []records.Grade {
	var out []records.Grade
	if err := c.fetch(ctx, "grades", "/api/grades/", &out); err != nil || out == nil {
		return []records.Grade{}
	}
	return out
}

// Attendance lists every attendance record.
func (c *Client) Attendance(ctx context.Context) []records.Attendance {
	var out []records.Attendance
	if err := c.fetch(ctx, "attendance", "/api/attendance/", &out); err != nil || out == nil {
		return []records.Attendance{}
	}
	return out
}

// Internships lists every internship.
func (c *Client) Internships(ctx context.Context) []records.Internship {
	var out []records.Internship
	if err := c.fetch(ctx, "internships", "/api/internships/", &out); err != nil || out == nil {
		return []records.Internship{}
	}
	return out
}

// Performance lists every performance record.
func (c *Client) Performance(ctx context.Context) []records.Performance {
	var out []records.Performance
	if err := c.fetch(ctx, "performance", "/api/performance/", &out); err != nil || out == nil {
		return []records.Performance{}
	}
	return out
}

// Dashboard returns the aggregate summary, or nil.
func (c *Client) Dashboard(ctx context.Context) *records.DashboardSummary {
	var out *records.DashboardSummary
	if err := c.fetch(ctx, "dashboard", "/api/dashboard/", &out); err != nil {
		return nil
	}
	return out
}

// Health checks if the records backend answers.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/dashboard/", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("records backend unavailable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return nil
}

// fetch GETs path, decodes the body into out and validates it. The returned
// error is only used to pick the empty result; it has already been logged.
func (c *Client) fetch(ctx context.Context, resource, path string, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "apiclient."+resource)
	defer span.End()

	endpoint := c.BaseURL + path
	span.SetAttributes(attribute.String("http.url", endpoint))

	start := time.Now()
	outcome := metrics.OutcomeOK
	status := 0
	defer func() {
		c.metrics.Requests.WithLabelValues(resource, outcome).Inc()
		c.metrics.Duration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			c.log.Warn("backend fetch failed",
				zap.String("resource", resource),
				zap.String("url", endpoint),
				zap.Int("status", status),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		outcome = metrics.OutcomeTransportError
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		outcome = metrics.OutcomeTransportError
		return fmt.Errorf("records backend request failed: %w", err)
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		outcome = metrics.OutcomeHTTPError
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = metrics.OutcomeParseError
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := records.Validate(out); err != nil {
		outcome = metrics.OutcomeParseError
		return fmt.Errorf("invalid %s payload: %w", resource, err)
	}
	return nil
}
