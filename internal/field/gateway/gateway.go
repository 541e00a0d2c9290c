// Package gateway is the field device's HTTP client for the server's
// generic relations API. Every call maps to one POST under
// /api/v1/relations/:relation and shares the server's response
// envelope. Failures are returned to the caller untouched; retry
// policy lives with the caller (the mutation queue for writes).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/dto"
)

// Gateway is the relation-level contract the field core consumes.
// Upsert is atomic per row and safe to replay with an identical
// payload; Insert does not dedupe.
type Gateway interface {
	Select(ctx context.Context, relation string, filter map[string]interface{}) ([]map[string]interface{}, error)
	Insert(ctx context.Context, relation string, rows []map[string]interface{}) (int64, error)
	Upsert(ctx context.Context, relation string, rows []map[string]interface{}, conflictKey []string) (int64, error)
	Delete(ctx context.Context, relation string, filter map[string]interface{}) (int64, error)
	Count(ctx context.Context, relation string, filter map[string]interface{}) (int64, error)
}

// RemoteError is a non-zero business code returned by the server.
type RemoteError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: %s (code %d, http %d)", e.Message, e.Code, e.HTTPStatus)
}

// TokenSource supplies the current access token for each request.
// Returning "" sends the request unauthenticated.
type TokenSource func() string

// Client implements Gateway over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  *zap.Logger
}

// NewClient builds a gateway client. baseURL is the server root
// without the /api/v1 prefix.
func NewClient(baseURL string, token TokenSource, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
		logger:  logger,
	}
}

// envelope mirrors the server's uniform response shape.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, relation, op string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s %s request: %w", relation, op, err)
	}

	url := fmt.Sprintf("%s/api/v1/relations/%s/%s", c.baseURL, relation, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", relation, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", relation, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", relation, op, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s %s response (http %d): %w", relation, op, resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || env.Code != 0 {
		c.logger.Warn("relation gateway call rejected",
			zap.String("relation", relation),
			zap.String("op", op),
			zap.Int("http_status", resp.StatusCode),
			zap.Int("code", env.Code))
		return &RemoteError{HTTPStatus: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", relation, op, err)
		}
	}
	return nil
}

func (c *Client) Select(ctx context.Context, relation string, filter map[string]interface{}) ([]map[string]interface{}, error) {
	var result dto.RelationRows
	if err := c.post(ctx, relation, "select", dto.RelationQuery{Filter: filter}, &result); err != nil {
		return nil, err
	}
	if result.Rows == nil {
		result.Rows = []map[string]interface{}{}
	}
	return result.Rows, nil
}

func (c *Client) Insert(ctx context.Context, relation string, rows []map[string]interface{}) (int64, error) {
	var result dto.RelationAffected
	if err := c.post(ctx, relation, "insert", dto.RelationWrite{Rows: rows}, &result); err != nil {
		return 0, err
	}
	return result.Affected, nil
}

func (c *Client) Upsert(ctx context.Context, relation string, rows []map[string]interface{}, conflictKey []string) (int64, error) {
	var result dto.RelationAffected
	write := dto.RelationWrite{Rows: rows, ConflictKey: conflictKey}
	if err := c.post(ctx, relation, "upsert", write, &result); err != nil {
		return 0, err
	}
	return result.Affected, nil
}

func (c *Client) Delete(ctx context.Context, relation string, filter map[string]interface{}) (int64, error) {
	var result dto.RelationAffected
	if err := c.post(ctx, relation, "delete", dto.RelationQuery{Filter: filter}, &result); err != nil {
		return 0, err
	}
	return result.Affected, nil
}

func (c *Client) Count(ctx context.Context, relation string, filter map[string]interface{}) (int64, error) {
	var result dto.RelationCount
	if err := c.post(ctx, relation, "count", dto.RelationQuery{Filter: filter}, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}
