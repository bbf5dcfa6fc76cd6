// Package remote is the HTTP client of the exam trainer data service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"exam_trainer_backend/internal/model"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ErrRemote wraps every failure reported by the service itself: a non-2xx
// status or a body without success:true.
var ErrRemote = errors.New("remote service error")

// ErrNotFound is a 404 answered by the service itself, as opposed to a
// missing route. It wraps ErrRemote.
var ErrNotFound = fmt.Errorf("%w: not found", ErrRemote)

const maxBodyBytes = 8 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the service rooted at baseURL, for example
// http://localhost:8080/api. A zero timeout keeps the transport default.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// User is the identity returned by a guest login.
type User struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Kind model.UserKind `json:"kind"`
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type progressBody struct {
	UserID    string           `json:"userId"`
	Block     string           `json:"block"`
	Answers   model.AnswerSets `json:"answers"`
	Cursor    int              `json:"cursor"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type attemptBody struct {
	UserID  string            `json:"userId"`
	Attempt model.ExamAttempt `json:"attempt"`
}

func (c *Client) GuestLogin(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, c.path("guest"), nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil || out.User.ID == "" {
		return nil, fmt.Errorf("%w: guest login returned no user", ErrRemote)
	}
	return out.User, nil
}

func (c *Client) SaveProgress(ctx context.Context, mode model.ProgressMode, userID string, p model.Progress) error {
	body := progressBody{
		UserID:    userID,
		Block:     p.Block,
		Answers:   p.Answers,
		Cursor:    p.Cursor,
		UpdatedAt: p.UpdatedAt,
	}
	return c.do(ctx, http.MethodPost, c.path(progressResource(mode)), body, nil)
}

func (c *Client) GetProgress(ctx context.Context, mode model.ProgressMode, userID, block string) (*model.Progress, error) {
	var out struct {
		Progress *model.Progress `json:"progress"`
	}
	if err := c.do(ctx, http.MethodGet, c.path(progressResource(mode), userID, block), nil, &out); err != nil {
		return nil, err
	}
	return out.Progress, nil
}

func (c *Client) ListProgress(ctx context.Context, mode model.ProgressMode, userID string) ([]model.Progress, error) {
	var out struct {
		Progress []model.Progress `json:"progress"`
	}
	if err := c.do(ctx, http.MethodGet, c.path(progressResource(mode), userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Progress, nil
}

// DeleteProgress succeeds when the service no longer has the progress.
func (c *Client) DeleteProgress(ctx context.Context, mode model.ProgressMode, userID, block string) error {
	return gone(c.do(ctx, http.MethodDelete, c.path(progressResource(mode), userID, block), nil, nil))
}

func (c *Client) SaveExamAttempt(ctx context.Context, userID string, a model.ExamAttempt) (*model.ExamAttempt, error) {
	var out struct {
		Attempt *model.ExamAttempt `json:"attempt"`
	}
	if err := c.do(ctx, http.MethodPost, c.path("exam-attempts"), attemptBody{UserID: userID, Attempt: a}, &out); err != nil {
		return nil, err
	}
	return out.Attempt, nil
}

func (c *Client) GetExamAttempts(ctx context.Context, userID string) ([]model.ExamAttempt, error) {
	var out struct {
		Attempts []model.ExamAttempt `json:"attempts"`
	}
	if err := c.do(ctx, http.MethodGet, c.path("exam-attempts", userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Attempts, nil
}

// DeleteExamAttempt succeeds when the service no longer has the attempt,
// so a retried delete settles even if another device got there first.
func (c *Client) DeleteExamAttempt(ctx context.Context, userID, attemptID string) error {
	return gone(c.do(ctx, http.MethodDelete, c.path("exam-attempts", userID, attemptID), nil, nil))
}

func gone(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func progressResource(mode model.ProgressMode) string {
	if mode == model.SimulationMode {
		return "simulation-progress"
	}
	return "trainer-progress"
}

// path joins escaped segments onto the base URL. Empty trailing segments are
// dropped so an optional block can be passed as "".
func (c *Client) path(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, s := range segments {
		if s == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func (c *Client) do(ctx context.Context, method, target string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%w: %s %s: status %d", ErrRemote, method, target, resp.StatusCode)
		}
		return fmt.Errorf("%w: malformed response: %v", ErrRemote, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		kind := ErrRemote
		if resp.StatusCode == http.StatusNotFound {
			kind = ErrNotFound
		}
		return fmt.Errorf("%w: %s %s: %d %s", kind, method, target, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: malformed response: %v", ErrRemote, err)
		}
	}
	return nil
}
