package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/argo-intraday/internal/status"
)

// StatusSource returns the latest agent status.
type StatusSource interface {
	Fetch(ctx context.Context) (status.Record, error)
	// Describe names the source in the header.
	Describe() string
}

// FileSource reads the status file written by the agent.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(_ context.Context) (status.Record, error) {
	return status.ReadFile(s.Path)
}

func (s FileSource) Describe() string {
	return s.Path
}

// HTTPSource polls the agent status server.
type HTTPSource struct {
	baseURL string
	client  *resty.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  resty.New().SetBaseURL(baseURL).SetTimeout(5 * time.Second),
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (status.Record, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/api/status")
	if err != nil {
		return status.Record{}, fmt.Errorf("failed to fetch status: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return status.Record{}, fmt.Errorf("status server returned %d: %s", resp.StatusCode(), resp.String())
	}

	var record status.Record
	if err := json.Unmarshal(resp.Body(), &record); err != nil {
		return status.Record{}, fmt.Errorf("failed to decode status: %w", err)
	}

	if record.TradeJournal == nil {
		record.TradeJournal = []string{}
	}

	return record, nil
}

func (s *HTTPSource) Describe() string {
	return s.baseURL
}
