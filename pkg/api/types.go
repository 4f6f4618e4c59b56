package api

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssargent/uniclass/pkg/uniclass"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"` // Parse error kind, e.g. OutOfRange
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string // When empty the API is unauthenticated

	Logger   *slog.Logger
	Registry *prometheus.Registry // Metrics registry; a fresh one is created when nil
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

// TableResponse describes one classification table.
type TableResponse struct {
	Table   uniclass.Table `json:"table" swaggertype:"string" example:"Ss"`
	Name    string         `json:"name" example:"Systems"`
	Entries int            `json:"entries"`
}

// CodeResponse describes a code and, when known, its title.
type CodeResponse struct {
	Code      uniclass.Code  `json:"code" swaggertype:"string" example:"Ss_25_10_20"`
	Table     uniclass.Table `json:"table" swaggertype:"string" example:"Ss"`
	TableName string         `json:"table_name"`
	Group     uint8          `json:"group"`
	SubGroup  *uint8         `json:"sub_group,omitempty"`
	Section   *uint8         `json:"section,omitempty"`
	Object    *uint8         `json:"object,omitempty"`
	Depth     int            `json:"depth"`
	Title     string         `json:"title,omitempty"`
	Parent    string         `json:"parent,omitempty"`
}

// EntryResponse is one catalog entry in a listing.
type EntryResponse struct {
	Code  uniclass.Code `json:"code" swaggertype:"string" example:"Ss_25_10"`
	Title string        `json:"title"`
}

// ParseRequest is the body of a batch parse.
type ParseRequest struct {
	Codes []string `json:"codes"`
}

// ParseResult is the outcome of parsing one input.
type ParseResult struct {
	Input string        `json:"input"`
	Valid bool          `json:"valid"`
	Code  *CodeResponse `json:"code,omitempty"`
	Error string        `json:"error,omitempty"`
	Kind  string        `json:"kind,omitempty"`
}

func newCodeResponse(code uniclass.Code) *CodeResponse {
	resp := &CodeResponse{
		Code:      code,
		Table:     code.Table(),
		TableName: code.Table().Name(),
		Group:     code.Group(),
		Depth:     code.Depth(),
	}
	if v, ok := code.SubGroup(); ok {
		resp.SubGroup = &v
	}
	if v, ok := code.Section(); ok {
		resp.Section = &v
	}
	if v, ok := code.Object(); ok {
		resp.Object = &v
	}
	if parent, ok := code.Parent(); ok {
		resp.Parent = parent.String()
	}
	return resp
}
