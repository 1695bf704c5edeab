// Package fakesolr provides a fake Solr collection for testing the tracking
// client without a running Solr.
//
// It serves the two request handlers the client uses, /update and /query,
// under CollectionPath. Updates are applied as Solr atomic updates
// (set, add, add-distinct, remove, inc) including the optimistic concurrency
// check Solr performs when a document carries _version_. Queries understand
// the small subset of the Lucene syntax the client generates.
//
// To inject failures, configure stub responses that match a handler path and
// optionally the request, and answer with a fixed status and body instead.
package fakesolr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/models"
)

// CollectionPath is where the fake collection is mounted.
const CollectionPath = "/solr/tracking"

// defaultRows mirrors Solr's default page size.
const defaultRows = 10

// RequestMatcher defines criteria for matching incoming requests.
type RequestMatcher struct {
	// Path is the handler path relative to the collection, "/update" or "/query".
	Path string
	// Matcher optionally inspects the request. The body has already been read.
	Matcher func(r *http.Request, body []byte) bool
}

// StubResponse is a canned answer for matching requests.
type StubResponse struct {
	Matcher    RequestMatcher
	StatusCode int
	Body       string
	// Times limits how often the stub answers. Zero means always.
	Times int

	used int
}

// UpdateRequest is an update request as received.
type UpdateRequest struct {
	Query url.Values
	Body  []byte
	Docs  []map[string]any
}

// Server is a fake Solr collection backed by memory.
type Server struct {
	httpServer *httptest.Server

	mu          sync.RWMutex
	docs        map[string]models.Record
	order       []string
	nextVersion int64
	updates     []UpdateRequest
	queries     []url.Values
	stubs       []*StubResponse
}

// NewServer starts a fake collection on a random local port.
func NewServer() *Server {
	s := &Server{
		docs:        make(map[string]models.Record),
		nextVersion: 1,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(CollectionPath+constants.UpdatePath, s.handleUpdate)
	mux.HandleFunc(CollectionPath+constants.QueryPath, s.handleQuery)
	s.httpServer = httptest.NewServer(mux)
	return s
}

// URL is the collection URL to hand to the client.
func (s *Server) URL() string {
	return s.httpServer.URL + CollectionPath
}

// Client returns an HTTP client wired to the server.
func (s *Server) Client() *http.Client {
	return s.httpServer.Client()
}

func (s *Server) Close() {
	s.httpServer.Close()
}

// AddStubResponse adds a stub. Stubs are matched in the order they were added.
func (s *Server) AddStubResponse(stub StubResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = append(s.stubs, &stub)
}

// Seed stores documents as they are, assigning each a fresh _version_.
func (s *Server) Seed(docs ...models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		id := fmt.Sprint(doc[constants.IDField])
		stored := make(models.Record, len(doc)+1)
		for k, v := range doc {
			stored[k] = v
		}
		s.store(id, stored)
	}
}

// Doc returns a copy of the stored document with the given id.
func (s *Server) Doc(id string) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return copyRecord(doc), true
}

// Len is the number of stored documents.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// UpdateRequests returns every update request received so far, in order,
// including rejected ones.
func (s *Server) UpdateRequests() []UpdateRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UpdateRequest, len(s.updates))
	copy(out, s.updates)
	return out
}

// QueryRequests returns the parameters of every query received so far.
func (s *Server) QueryRequests() []url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]url.Values, len(s.queries))
	copy(out, s.queries)
	return out
}

func (s *Server) matchStub(path string, r *http.Request, body []byte) *StubResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stub := range s.stubs {
		if stub.Matcher.Path != path {
			continue
		}
		if stub.Times > 0 && stub.used >= stub.Times {
			continue
		}
		if stub.Matcher.Matcher != nil && !stub.Matcher.Matcher(r, body) {
			continue
		}
		stub.used++
		return stub
	}
	return nil
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var docs []map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	decodeErr := dec.Decode(&docs)

	s.mu.Lock()
	s.updates = append(s.updates, UpdateRequest{Query: r.URL.Query(), Body: body, Docs: docs})
	s.mu.Unlock()

	if stub := s.matchStub(constants.UpdatePath, r, body); stub != nil {
		writeRaw(w, stub.StatusCode, stub.Body)
		return
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported content type: "+ct)
		return
	}
	if decodeErr != nil {
		writeError(w, http.StatusBadRequest, "cannot parse update body: "+decodeErr.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		if status, err := s.apply(doc); err != nil {
			writeError(w, status, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"responseHeader": map[string]any{"status": 0, "QTime": 0},
	})
}

// apply performs one atomic update. Callers hold s.mu.
func (s *Server) apply(doc map[string]any) (int, error) {
	rawID, ok := doc[constants.IDField]
	if !ok {
		return http.StatusBadRequest, fmt.Errorf("Document is missing mandatory uniqueKey field: id")
	}
	id := fmt.Sprint(rawID)
	existing, exists := s.docs[id]

	if v, ok := doc[constants.VersionField]; ok {
		if status, err := checkVersion(id, v, existing, exists); err != nil {
			return status, err
		}
	}

	updated := copyRecord(existing)
	if updated == nil {
		updated = models.Record{constants.IDField: rawID}
	}

	for field, value := range doc {
		if field == constants.IDField || field == constants.VersionField {
			continue
		}
		op, isOp := value.(map[string]any)
		if !isOp {
			updated[field] = value
			continue
		}
		for action, arg := range op {
			if err := applyOp(updated, field, action, arg); err != nil {
				return http.StatusBadRequest, err
			}
		}
	}

	s.store(id, updated)
	return http.StatusOK, nil
}

// store saves doc under id with a new version. Callers hold s.mu.
func (s *Server) store(id string, doc models.Record) {
	if _, exists := s.docs[id]; !exists {
		s.order = append(s.order, id)
	}
	doc[constants.VersionField] = json.Number(strconv.FormatInt(s.nextVersion, 10))
	s.nextVersion++
	s.docs[id] = doc
}

func checkVersion(id string, v any, existing models.Record, exists bool) (int, error) {
	want, err := toInt64(v)
	if err != nil {
		return http.StatusBadRequest, fmt.Errorf("invalid _version_ %v", v)
	}
	switch {
	case want == 0:
		return http.StatusOK, nil
	case want < 0 && exists:
		return http.StatusConflict, fmt.Errorf("version conflict for %s expected=%d actual=%v", id, want, existing[constants.VersionField])
	case want > 0 && !exists:
		return http.StatusConflict, fmt.Errorf("Document not found for update.  id=%s", id)
	case want > 0:
		have, _ := toInt64(existing[constants.VersionField])
		if have != want {
			return http.StatusConflict, fmt.Errorf("version conflict for %s expected=%d actual=%d", id, want, have)
		}
	}
	return http.StatusOK, nil
}

func applyOp(doc models.Record, field, action string, arg any) error {
	switch action {
	case constants.OpSet:
		if arg == nil {
			delete(doc, field)
		} else {
			doc[field] = arg
		}
	case constants.OpAdd:
		doc[field] = append(asList(doc[field]), asList(arg)...)
	case constants.OpAddDistinct:
		values := asList(doc[field])
		for _, v := range asList(arg) {
			if !containsValue(values, v) {
				values = append(values, v)
			}
		}
		doc[field] = values
	case constants.OpRemove:
		var kept []any
		remove := asList(arg)
		for _, v := range asList(doc[field]) {
			if !containsValue(remove, v) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			delete(doc, field)
		} else {
			doc[field] = kept
		}
	case constants.OpInc:
		by, err := toFloat64(arg)
		if err != nil {
			return fmt.Errorf("cannot increment %s by %v", field, arg)
		}
		current := 0.0
		if v, ok := doc[field]; ok {
			if current, err = toFloat64(v); err != nil {
				return fmt.Errorf("field %s is not numeric", field)
			}
		}
		doc[field] = json.Number(strconv.FormatFloat(current+by, 'f', -1, 64))
	default:
		return fmt.Errorf("Unknown operation for the atomic update: %s", action)
	}
	return nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := r.Form

	s.mu.Lock()
	s.queries = append(s.queries, params)
	s.mu.Unlock()

	if stub := s.matchStub(constants.QueryPath, r, []byte(params.Encode())); stub != nil {
		writeRaw(w, stub.StatusCode, stub.Body)
		return
	}

	match, err := parseQuery(params.Get("q"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := defaultRows
	if v := params.Get("rows"); v != "" {
		if rows, err = strconv.Atoi(v); err != nil || rows < 0 {
			writeError(w, http.StatusBadRequest, "invalid rows: "+v)
			return
		}
	}

	s.mu.RLock()
	var hits []models.Record
	for _, id := range s.order {
		if doc := s.docs[id]; match(doc) {
			hits = append(hits, copyRecord(doc))
		}
	}
	s.mu.RUnlock()

	if err := sortDocs(hits, params.Get("sort")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	numFound := len(hits)
	if len(hits) > rows {
		hits = hits[:rows]
	}
	if hits == nil {
		hits = []models.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"responseHeader": map[string]any{"status": 0, "QTime": 0, "params": params},
		"response":       map[string]any{"numFound": numFound, "start": 0, "docs": hits},
	})
}

type matchFunc func(doc models.Record) bool

// parseQuery understands "*:*", "field:value", "field:\"value\"",
// "-field:[* TO *]" and conjunctions of those joined by " AND ".
func parseQuery(q string) (matchFunc, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("missing query")
	}

	var clauses []matchFunc
	for _, part := range strings.Split(q, " AND ") {
		clause, err := parseClause(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}

	return func(doc models.Record) bool {
		for _, c := range clauses {
			if !c(doc) {
				return false
			}
		}
		return true
	}, nil
}

func parseClause(clause string) (matchFunc, error) {
	if clause == "*:*" {
		return func(models.Record) bool { return true }, nil
	}

	negate := strings.HasPrefix(clause, "-")
	clause = strings.TrimPrefix(clause, "-")

	field, value, ok := strings.Cut(clause, ":")
	if !ok || field == "" {
		return nil, fmt.Errorf("unsupported query clause %q", clause)
	}

	var m matchFunc
	switch {
	case value == "[* TO *]":
		m = func(doc models.Record) bool {
			_, ok := doc[field]
			return ok
		}
	case len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`):
		want := unescapePhrase(value[1 : len(value)-1])
		m = fieldEquals(field, want)
	default:
		m = fieldEquals(field, value)
	}

	if negate {
		return func(doc models.Record) bool { return !m(doc) }, nil
	}
	return m, nil
}

func fieldEquals(field, want string) matchFunc {
	return func(doc models.Record) bool {
		for _, v := range asList(doc[field]) {
			if fmt.Sprint(v) == want {
				return true
			}
		}
		return false
	}
}

func unescapePhrase(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func sortDocs(docs []models.Record, clause string) error {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}
	field, dir, _ := strings.Cut(clause, " ")
	desc := false
	switch strings.TrimSpace(dir) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return fmt.Errorf("invalid sort direction %q", dir)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		a, aok := docs[i][field]
		b, bok := docs[j][field]
		if !aok || !bok {
			// documents without the field sort last either way
			return aok && !bok
		}
		if desc {
			return fmt.Sprint(a) > fmt.Sprint(b)
		}
		return fmt.Sprint(a) < fmt.Sprint(b)
	})
	return nil
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return append([]any(nil), t...)
	default:
		return []any{t}
	}
}

func containsValue(values []any, v any) bool {
	for _, existing := range values {
		if fmt.Sprint(existing) == fmt.Sprint(v) {
			return true
		}
	}
	return false
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Int64()
	case float64:
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

func copyRecord(doc models.Record) models.Record {
	if doc == nil {
		return nil
	}
	out := make(models.Record, len(doc))
	for k, v := range doc {
		if list, ok := v.([]any); ok {
			v = append([]any(nil), list...)
		}
		out[k] = v
	}
	return out
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"responseHeader": map[string]any{"status": status, "QTime": 0},
		"error":          map[string]any{"msg": msg, "code": status},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
