package kevals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ukwa/kevals.go/internal/fakesolr"
	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/models"
)

func TestListQuery(t *testing.T) {
	q := ListQuery(nil)
	require.Equal(t, "*:*", q.Get("q"))
	require.Equal(t, "100", q.Get("rows"))
	require.Equal(t, "timestamp_dt desc", q.Get("sort"))

	q = ListQuery(&ListOptions{Filter: models.NewFilter("status", "ok"), Sort: "id asc", Limit: 5})
	require.Equal(t, "*:* AND status:ok", q.Get("q"))
	require.Equal(t, "5", q.Get("rows"))
	require.Equal(t, "id asc", q.Get("sort"))

	q = ListQuery(&ListOptions{Filter: models.NewFilter("status", models.NoneValue)})
	require.Equal(t, "*:* AND -status:[* TO *]", q.Get("q"))

	q = ListQuery(&ListOptions{Filter: models.NewFilter("status", "")})
	require.Equal(t, "*:* AND -status:[* TO *]", q.Get("q"))
}

func TestGetQuery(t *testing.T) {
	require.Equal(t, `id:"http://example.com/a?b=c"`, GetQuery("http://example.com/a?b=c").Get("q"))
	require.Equal(t, `id:"say \"hi\" \\o/"`, GetQuery(`say "hi" \o/`).Get("q"))
	require.Len(t, GetQuery("x"), 1)
}

func TestParseQueryResponse(t *testing.T) {
	res, err := ParseQueryResponse([]byte(`{"responseHeader":{"status":0},"response":{"numFound":2,"start":0,"docs":[{"id":"a","n":12345678901234567},{"id":"b","tags":["x"]}]}}`))
	require.NoError(t, err)
	require.EqualValues(t, 2, res.NumFound)
	require.Len(t, res.Docs, 2)
	require.Equal(t, json.Number("12345678901234567"), res.Docs[0]["n"])
	require.Equal(t, []any{"x"}, res.Docs[1]["tags"])

	res, err = ParseQueryResponse([]byte(`{"response":{"numFound":0,"docs":[]}}`))
	require.NoError(t, err)
	require.EqualValues(t, 0, res.NumFound)
	require.Empty(t, res.Docs)

	for _, body := range []string{
		``,
		`not json`,
		`{"error":{"msg":"x"}}`,
		`{"response":{"docs":[]}}`,
		`{"response":{"numFound":"1","docs":[]}}`,
		`{"response":{"numFound":1,"docs":{"id":"a"}}}`,
		`{"response":{"numFound":1,"docs":[1]}}`,
	} {
		_, err := ParseQueryResponse([]byte(body))
		require.ErrorIs(t, err, constants.ErrInvalidResponse, body)
	}
}

type QueryTestSuite struct {
	suite.Suite
	solr   *fakesolr.Server
	client *Client
}

func TestQueryTestSuite(t *testing.T) {
	suite.Run(t, new(QueryTestSuite))
}

func (s *QueryTestSuite) SetupTest() {
	s.solr = fakesolr.NewServer()
	s.solr.Seed(
		models.Record{"id": "a", "status": "ok", "timestamp_dt": "2020-01-01T00:00:00Z"},
		models.Record{"id": "b", "status": "fail", "timestamp_dt": "2022-01-01T00:00:00Z"},
		models.Record{"id": "c", "timestamp_dt": "2021-01-01T00:00:00Z"},
	)

	c, err := New(s.solr.URL(), WithHTTPClient(s.solr.Client()))
	s.Require().NoError(err)
	s.client = c
}

func (s *QueryTestSuite) TearDownTest() {
	s.solr.Close()
}

func ids(docs []models.Record) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.IDString())
	}
	return out
}

func (s *QueryTestSuite) TestListAll() {
	docs, err := s.client.List(context.Background(), nil)
	s.Require().NoError(err)
	s.Equal([]string{"b", "c", "a"}, ids(docs))

	params := s.solr.QueryRequests()[0]
	s.Equal("*:*", params.Get("q"))
	s.Equal("100", params.Get("rows"))
	s.Equal("timestamp_dt desc", params.Get("sort"))
}

func (s *QueryTestSuite) TestListFilterAndLimit() {
	docs, err := s.client.List(context.Background(), &ListOptions{Filter: models.NewFilter("status", "ok")})
	s.Require().NoError(err)
	s.Equal([]string{"a"}, ids(docs))

	docs, err = s.client.List(context.Background(), &ListOptions{Sort: "timestamp_dt asc", Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{"a", "c"}, ids(docs))
}

func (s *QueryTestSuite) TestListNone() {
	docs, err := s.client.List(context.Background(), &ListOptions{Filter: models.NewFilter("status", models.NoneValue)})
	s.Require().NoError(err)
	s.Equal([]string{"c"}, ids(docs))
	s.Contains(s.solr.QueryRequests()[0].Get("q"), "-status:[* TO *]")
}

func (s *QueryTestSuite) TestListNoMatchIsEmpty() {
	docs, err := s.client.List(context.Background(), &ListOptions{Filter: models.NewFilter("status", "unknown")})
	s.Require().NoError(err)
	s.NotNil(docs)
	s.Empty(docs)
}

func (s *QueryTestSuite) TestListNumFoundZeroIgnoresDocs() {
	s.solr.AddStubResponse(fakesolr.StubResponse{
		Matcher:    fakesolr.RequestMatcher{Path: "/query"},
		StatusCode: http.StatusOK,
		Body:       `{"response":{"numFound":0,"docs":[{"id":"ghost"}]}}`,
	})

	docs, err := s.client.List(context.Background(), nil)
	s.Require().NoError(err)
	s.NotNil(docs)
	s.Empty(docs)
}

func (s *QueryTestSuite) TestListNumFoundWithoutDocsIsEmpty() {
	s.solr.AddStubResponse(fakesolr.StubResponse{
		Matcher:    fakesolr.RequestMatcher{Path: "/query"},
		StatusCode: http.StatusOK,
		Body:       `{"response":{"numFound":3,"docs":[]}}`,
	})

	docs, err := s.client.List(context.Background(), &ListOptions{Limit: 1})
	s.Require().NoError(err)
	s.NotNil(docs)
	s.Empty(docs)
}

func (s *QueryTestSuite) TestGet() {
	doc, err := s.client.Get(context.Background(), "b")
	s.Require().NoError(err)
	s.Require().NotNil(doc)
	s.Equal("fail", doc["status"])
	s.Equal(`id:"b"`, s.solr.QueryRequests()[0].Get("q"))
	s.Len(s.solr.QueryRequests()[0], 1)
}

func (s *QueryTestSuite) TestGetURLIdentifier() {
	s.solr.Seed(models.Record{"id": "http://example.com/page?x=1", "status": "ok"})

	doc, err := s.client.Get(context.Background(), "http://example.com/page?x=1")
	s.Require().NoError(err)
	s.Require().NotNil(doc)
	s.Equal("ok", doc["status"])
}

func (s *QueryTestSuite) TestGetNotFound() {
	doc, err := s.client.Get(context.Background(), "nope")
	s.Require().NoError(err)
	s.Nil(doc)
}

func (s *QueryTestSuite) TestGetMultipleMatchesIsNotFound() {
	s.solr.AddStubResponse(fakesolr.StubResponse{
		Matcher:    fakesolr.RequestMatcher{Path: "/query"},
		StatusCode: http.StatusOK,
		Body:       `{"response":{"numFound":2,"docs":[{"id":"a"},{"id":"a"}]}}`,
	})

	doc, err := s.client.Get(context.Background(), "a")
	s.Require().NoError(err)
	s.Nil(doc)
}

func (s *QueryTestSuite) TestUpstreamErrors() {
	s.solr.AddStubResponse(fakesolr.StubResponse{
		Matcher:    fakesolr.RequestMatcher{Path: "/query"},
		StatusCode: http.StatusBadRequest,
		Body:       `{"error":{"msg":"undefined field timestamp_dt"}}`,
	})

	_, err := s.client.List(context.Background(), nil)
	var upstream *UpstreamError
	s.Require().True(errors.As(err, &upstream))
	s.Equal(http.StatusBadRequest, upstream.StatusCode)
	s.Contains(upstream.Body, "undefined field")

	_, err = s.client.Get(context.Background(), "a")
	s.Require().True(errors.As(err, &upstream))
	s.Equal(http.StatusBadRequest, upstream.StatusCode)
}
