// Package remote talks to the hosted record API: a generic per-table record
// service with field selection, where clauses and batch mutations.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/config"
	"github.com/mamadbah2/farmboard/internal/repository"
)

// Where is one clause of a record query.
type Where struct {
	FieldName string `json:"fieldName"`
	Operator  string `json:"operator"`
	Values    []any  `json:"values"`
}

// Eq matches records whose field equals value.
func Eq(field string, value any) Where {
	return Where{FieldName: field, Operator: "eq", Values: []any{value}}
}

type queryRequest struct {
	Fields []string `json:"fields,omitempty"`
	Where  []Where  `json:"where,omitempty"`
}

type recordsRequest struct {
	Records []any `json:"records"`
}

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Results []RecordResult  `json:"results"`
}

// RecordResult is the outcome of one record in a batch.
type RecordResult struct {
	Success bool                    `json:"success"`
	Code    string                  `json:"code,omitempty"`
	Message string                  `json:"message,omitempty"`
	Data    json.RawMessage         `json:"data,omitempty"`
	Errors  []repository.FieldError `json:"errors,omitempty"`
}

const codeNotFound = "NOT_FOUND"

// Client is a resty-backed record API client.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a record API client from configuration.
func NewClient(cfg config.RecordAPIConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("X-Project-Id", cfg.ProjectID).
		SetHeader("X-Public-Key", cfg.PublicKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient, logger: logger}
}

func recordsPath(table string) string {
	return fmt.Sprintf("tables/%s/records", table)
}

// Query fetches the records of table matching every where clause.
func (c *Client) Query(ctx context.Context, table string, fields []string, where ...Where) (json.RawMessage, error) {
	env, err := c.do(ctx, "query", table, http.MethodPost, recordsPath(table)+"/query", nil, queryRequest{Fields: fields, Where: where})
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// FetchByID fetches one record.
func (c *Client) FetchByID(ctx context.Context, table string, id int) (json.RawMessage, error) {
	env, err := c.do(ctx, "fetch", table, http.MethodGet, fmt.Sprintf("%s/%d", recordsPath(table), id), nil, nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateRecords inserts a batch and returns the per-record results.
func (c *Client) CreateRecords(ctx context.Context, table string, records []any) ([]RecordResult, error) {
	env, err := c.do(ctx, "create", table, http.MethodPost, recordsPath(table), nil, recordsRequest{Records: records})
	if err != nil {
		return nil, err
	}
	return env.Results, nil
}

// UpdateRecords replaces a batch of records identified by their Id field.
func (c *Client) UpdateRecords(ctx context.Context, table string, records []any) ([]RecordResult, error) {
	env, err := c.do(ctx, "update", table, http.MethodPatch, recordsPath(table), nil, recordsRequest{Records: records})
	if err != nil {
		return nil, err
	}
	return env.Results, nil
}

// DeleteRecords removes a batch of ids.
func (c *Client) DeleteRecords(ctx context.Context, table string, ids []int) ([]RecordResult, error) {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	query := map[string]string{"ids": strings.Join(parts, ",")}
	env, err := c.do(ctx, "delete", table, http.MethodDelete, recordsPath(table), query, nil)
	if err != nil {
		return nil, err
	}
	return env.Results, nil
}

func (c *Client) do(ctx context.Context, op, table, method, path string, query map[string]string, body any) (*envelope, error) {
	req := c.httpClient.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("record api unreachable", zap.String("op", op), zap.String("table", table), zap.Error(err))
		return nil, &repository.NetworkError{Op: op, Table: table, Err: err}
	}

	env := new(envelope)
	decodeErr := json.Unmarshal(resp.Body(), env)

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", op, table, repository.ErrNotFound)
	case resp.StatusCode() >= http.StatusBadRequest && len(env.Results) == 0:
		netErr := &repository.NetworkError{Op: op, Table: table, StatusCode: resp.StatusCode(), Message: env.Message}
		c.logger.Warn("record api error", zap.String("op", op), zap.String("table", table), zap.Int("status", resp.StatusCode()), zap.String("message", env.Message))
		return nil, netErr
	case decodeErr != nil:
		return nil, &repository.NetworkError{Op: op, Table: table, StatusCode: resp.StatusCode(), Message: "malformed response", Err: decodeErr}
	case !env.Success && len(env.Results) == 0:
		c.logger.Warn("record api rejected request", zap.String("op", op), zap.String("table", table), zap.String("message", env.Message))
		return nil, &repository.NetworkError{Op: op, Table: table, StatusCode: resp.StatusCode(), Message: env.Message}
	}
	return env, nil
}
