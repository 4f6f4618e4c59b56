package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/index"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	// maxParseBatch bounds the number of codes in one parse request.
	maxParseBatch = 1000
	maxBodyBytes  = 1 << 20
)

// Server holds the API server state
type Server struct {
	catalogs CatalogProvider
	config   ServerConfig
	metrics  *Metrics

	indexOnce sync.Once
	titles    *index.TitleIndex
}

// NewServer creates a new API server
func NewServer(catalogs CatalogProvider, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		catalogs: catalogs,
		config:   config,
		metrics:  metrics,
	}
}

// catalog returns the served catalog, writing a 503 when it cannot be loaded.
func (s *Server) catalog(w http.ResponseWriter) (*catalog.Catalog, bool) {
	cat, err := s.catalogs.Get()
	if err != nil {
		sendError(w, fmt.Sprintf("Catalog unavailable: %v", err), http.StatusServiceUnavailable)
		return nil, false
	}
	s.metrics.UpdateCatalogStats(cat.Len())
	return cat, true
}

// parseLimit reads the limit query parameter, writing a 400 when it is not a
// positive integer.
func parseLimit(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		sendError(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return min(n, maxListLimit), true
}

// titleIndex returns the word index of the served catalog, building it on
// first use.
func (s *Server) titleIndex(w http.ResponseWriter) (*index.TitleIndex, bool) {
	cat, ok := s.catalog(w)
	if !ok {
		return nil, false
	}
	s.indexOnce.Do(func() { s.titles = index.Build(cat) })
	return s.titles, true
}

// parseCode parses the {code} path parameter, writing a 400 on failure.
func (s *Server) parseCode(w http.ResponseWriter, r *http.Request) (uniclass.Code, bool) {
	raw := chi.URLParam(r, "code")
	code, err := uniclass.Parse(raw)
	if err != nil {
		s.metrics.RecordLookup(lookupInvalid)
		sendErrorKind(w, err.Error(), uniclass.KindName(err), http.StatusBadRequest)
		return uniclass.Code{}, false
	}
	return code, true
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Report whether the catalog is loaded
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	APIResponse
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalogs.Get()
	if err != nil {
		s.metrics.RecordHealthCheck(false)
		sendError(w, fmt.Sprintf("Catalog unavailable: %v", err), http.StatusServiceUnavailable)
		return
	}
	s.metrics.RecordHealthCheck(true)
	s.metrics.UpdateCatalogStats(cat.Len())
	sendSuccess(w, HealthResponse{Status: "healthy", Entries: cat.Len()})
}

// handleTables godoc
//
//	@Summary		List tables
//	@Description	List every classification table with the number of catalog entries it holds
//	@Tags			tables
//	@Produce		json
//	@Success		200	{array}		TableResponse
//	@Failure		503	{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/tables [get]
func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	cat, ok := s.catalog(w)
	if !ok {
		return
	}
	counts := cat.Tables()
	tables := make([]TableResponse, 0, len(uniclass.Tables()))
	for _, t := range uniclass.Tables() {
		tables = append(tables, TableResponse{Table: t, Name: t.Name(), Entries: counts[t]})
	}
	sendSuccess(w, tables)
}

// handleListCodes godoc
//
//	@Summary		List codes
//	@Description	List catalog entries in code order, optionally restricted to a table or to the descendants of a code
//	@Tags			codes
//	@Produce		json
//	@Param			prefix	query		string	false	"Code whose descendants to list, e.g. Ss_25"
//	@Param			table	query		string	false	"Table mnemonic, e.g. Pr"
//	@Param			limit	query		int		false	"Maximum entries (default 100, max 1000)"
//	@Success		200		{array}		EntryResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		503		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/codes [get]
func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, ok := parseLimit(w, query.Get("limit"))
	if !ok {
		return
	}

	cat, ok := s.catalog(w)
	if !ok {
		return
	}

	var entries []catalog.Entry
	switch {
	case query.Get("prefix") != "":
		prefix, err := uniclass.Parse(query.Get("prefix"))
		if err != nil {
			sendErrorKind(w, err.Error(), uniclass.KindName(err), http.StatusBadRequest)
			return
		}
		entries = cat.Descendants(prefix)
	case query.Get("table") != "":
		table, err := uniclass.ParseTable(query.Get("table"))
		if err != nil {
			sendErrorKind(w, err.Error(), uniclass.KindName(err), http.StatusBadRequest)
			return
		}
		entries = cat.Table(table)
	default:
		entries = cat.Entries()
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	sendSuccess(w, toEntryResponses(entries))
}

// handleSearch godoc
//
//	@Summary		Search titles
//	@Description	Find entries whose titles contain a word starting with every term of the query
//	@Tags			codes
//	@Produce		json
//	@Param			q		query		string	true	"Search terms, e.g. framed wall"
//	@Param			limit	query		int		false	"Maximum entries (default 100, max 1000)"
//	@Success		200		{array}		EntryResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		503		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	terms := query.Get("q")
	if len(index.Tokenize(terms)) == 0 {
		sendError(w, "q must contain at least one word", http.StatusBadRequest)
		return
	}
	limit, ok := parseLimit(w, query.Get("limit"))
	if !ok {
		return
	}

	titles, ok := s.titleIndex(w)
	if !ok {
		return
	}
	entries := titles.Search(terms, limit)
	s.metrics.RecordSearch(len(entries))
	sendSuccess(w, toEntryResponses(entries))
}

// handleGetCode godoc
//
//	@Summary		Look up a code
//	@Description	Decode a code into its fields and return its catalog title
//	@Tags			codes
//	@Produce		json
//	@Param			code	path		string	true	"Code, e.g. Ss_25_10_20"
//	@Success		200		{object}	CodeResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		503		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/codes/{code} [get]
func (s *Server) handleGetCode(w http.ResponseWriter, r *http.Request) {
	code, ok := s.parseCode(w, r)
	if !ok {
		return
	}
	cat, ok := s.catalog(w)
	if !ok {
		return
	}

	entry, found := cat.Lookup(code)
	if !found {
		s.metrics.RecordLookup(lookupNotFound)
		sendError(w, fmt.Sprintf("Code %s not found", code), http.StatusNotFound)
		return
	}
	s.metrics.RecordLookup(lookupFound)

	resp := newCodeResponse(code)
	resp.Title = entry.Title
	sendSuccess(w, resp)
}

// handleChildren godoc
//
//	@Summary		List children
//	@Description	List the entries exactly one level below a code
//	@Tags			codes
//	@Produce		json
//	@Param			code	path		string	true	"Parent code, e.g. Ss_25"
//	@Success		200		{array}		EntryResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		503		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/codes/{code}/children [get]
func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	code, ok := s.parseCode(w, r)
	if !ok {
		return
	}
	cat, ok := s.catalog(w)
	if !ok {
		return
	}
	sendSuccess(w, toEntryResponses(cat.Children(code)))
}

// handleParse godoc
//
//	@Summary		Parse codes
//	@Description	Parse a batch of codes. Each input gets its own result; invalid inputs carry the error kind.
//	@Tags			codes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseRequest	true	"Codes to parse"
//	@Success		200		{array}		ParseResult
//	@Failure		400		{object}	APIResponse
//	@Security		ApiKeyAuth
//	@Router			/parse [post]
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if len(req.Codes) > maxParseBatch {
		sendError(w, fmt.Sprintf("At most %d codes per request", maxParseBatch), http.StatusBadRequest)
		return
	}

	// Titles are added when a catalog is available; parsing works without one.
	cat, _ := s.catalogs.Get()

	results := make([]ParseResult, 0, len(req.Codes))
	for _, input := range req.Codes {
		code, err := uniclass.Parse(input)
		if err != nil {
			kind := uniclass.KindName(err)
			s.metrics.RecordParse(kind)
			results = append(results, ParseResult{Input: input, Error: err.Error(), Kind: kind})
			continue
		}
		s.metrics.RecordParse("ok")
		resp := newCodeResponse(code)
		if cat != nil {
			resp.Title, _ = cat.Title(code)
		}
		results = append(results, ParseResult{Input: input, Valid: true, Code: resp})
	}
	sendSuccess(w, results)
}

func toEntryResponses(entries []catalog.Entry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = EntryResponse{Code: e.Code, Title: e.Title}
	}
	return out
}
