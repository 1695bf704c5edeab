package connection

import "fmt"

// UpstreamError is returned for every non-200 response from Solr. Transient
// and permanent failures are not told apart.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("solr returned an error: HTTP %d\n%s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Is(target error) bool {
	if target == nil {
		return e == nil
	}

	_, ok := target.(*UpstreamError)
	return ok
}
