package kevals_test

import (
	"context"
	"fmt"
	"strings"

	kevals "github.com/ukwa/kevals.go"
	"github.com/ukwa/kevals.go/internal/fakesolr"
	"github.com/ukwa/kevals.go/pkg/models"
)

func ExampleClient_ImportJSONL() {
	solr := fakesolr.NewServer()
	defer solr.Close()

	client, err := kevals.New(solr.URL(), kevals.WithHTTPClient(solr.Client()), kevals.WithBatchSize(2))
	if err != nil {
		panic(err)
	}

	input := `{"id":"http://example.com/","status":"crawled","timestamp_dt":"2020-01-01T00:00:00Z"}
{"id":"http://example.org/","status":"failed","timestamp_dt":"2020-01-02T00:00:00Z"}
{"id":"http://example.net/","timestamp_dt":"2020-01-03T00:00:00Z"}
`
	stats, err := client.ImportJSONL(context.Background(), strings.NewReader(input))
	if err != nil {
		panic(err)
	}
	fmt.Printf("imported %d records in %d batches\n", stats.Records, stats.Batches)

	pending, err := client.List(context.Background(), &kevals.ListOptions{
		Filter: models.NewFilter("status", models.NoneValue),
	})
	if err != nil {
		panic(err)
	}
	for _, doc := range pending {
		fmt.Println("pending:", doc.IDString())
	}

	doc, err := client.Get(context.Background(), "http://example.org/")
	if err != nil {
		panic(err)
	}
	fmt.Println("status:", doc["status"])

	// Output:
	// imported 3 records in 2 batches
	// pending: http://example.net/
	// status: failed
}

func ExampleClient_Update() {
	solr := fakesolr.NewServer()
	defer solr.Close()

	client, err := kevals.New(solr.URL(), kevals.WithHTTPClient(solr.Client()))
	if err != nil {
		panic(err)
	}

	ids := []string{"a", "b"}
	if _, err := client.Update(context.Background(), ids, "collections", "ukwa", ""); err != nil {
		panic(err)
	}
	if _, err := client.Update(context.Background(), ids, "collections", "ukwa", ""); err != nil {
		panic(err)
	}

	doc, err := client.Get(context.Background(), "a")
	if err != nil {
		panic(err)
	}
	fmt.Println(doc["collections"])

	// Output:
	// [ukwa]
}
