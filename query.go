package kevals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ukwa/kevals.go/pkg/constants"
	"github.com/ukwa/kevals.go/pkg/models"
)

// ListOptions narrows and orders List results. The zero value lists the
// newest constants.DefaultListLimit records.
type ListOptions struct {
	Filter *models.QueryFilter
	Sort   string
	Limit  int
}

// List returns the records matching opts. No match gives an empty slice.
func (c *Client) List(ctx context.Context, opts *ListOptions) ([]models.Record, error) {
	res, err := c.Query(ctx, ListQuery(opts))
	if err != nil {
		return nil, err
	}
	if res.NumFound > 0 && len(res.Docs) > 0 {
		return res.Docs, nil
	}
	return []models.Record{}, nil
}

// Get returns the record with the given id, or nil when there is no single
// match. More than one match is treated the same as none.
func (c *Client) Get(ctx context.Context, id string) (models.Record, error) {
	res, err := c.Query(ctx, GetQuery(id))
	if err != nil {
		return nil, err
	}
	if res.NumFound != 1 || len(res.Docs) == 0 {
		return nil, nil
	}
	return res.Docs[0], nil
}

// Query posts raw query parameters to the query handler.
func (c *Client) Query(ctx context.Context, params url.Values) (*models.QueryResponse, error) {
	data, err := c.conn.PostForm(ctx, constants.QueryPath, params)
	if err != nil {
		return nil, err
	}
	return ParseQueryResponse(data)
}

// ListQuery builds the parameters List sends.
func ListQuery(opts *ListOptions) url.Values {
	if opts == nil {
		opts = &ListOptions{}
	}

	q := "*:*"
	if opts.Filter != nil {
		q += " AND " + opts.Filter.Clause()
	}

	sort := opts.Sort
	if sort == "" {
		sort = constants.DefaultSort
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = constants.DefaultListLimit
	}

	return url.Values{
		"q":    {q},
		"rows": {strconv.Itoa(limit)},
		"sort": {sort},
	}
}

var idEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// GetQuery builds the parameters Get sends. The id is quoted so that
// characters such as ':' and '/' in URLs need no further escaping.
func GetQuery(id string) url.Values {
	return url.Values{
		"q": {fmt.Sprintf(`%s:"%s"`, constants.IDField, idEscaper.Replace(id))},
	}
}

// ParseQueryResponse extracts numFound and docs from a /query response body.
func ParseQueryResponse(data []byte) (*models.QueryResponse, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: body is not JSON", constants.ErrInvalidResponse)
	}

	response := gjson.GetBytes(data, "response")
	if !response.IsObject() {
		return nil, fmt.Errorf("%w: missing response object", constants.ErrInvalidResponse)
	}

	numFound := response.Get("numFound")
	if numFound.Type != gjson.Number {
		return nil, fmt.Errorf("%w: missing response.numFound", constants.ErrInvalidResponse)
	}

	res := &models.QueryResponse{NumFound: numFound.Int()}

	docs := response.Get("docs")
	if !docs.Exists() {
		return res, nil
	}
	if !docs.IsArray() {
		return nil, fmt.Errorf("%w: response.docs is not an array", constants.ErrInvalidResponse)
	}

	var decodeErr error
	docs.ForEach(func(_, doc gjson.Result) bool {
		rec, err := decodeDoc(doc.Raw)
		if err != nil {
			decodeErr = err
			return false
		}
		res.Docs = append(res.Docs, rec)
		return true
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrInvalidResponse, decodeErr)
	}
	return res, nil
}

func decodeDoc(raw string) (models.Record, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var rec models.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
