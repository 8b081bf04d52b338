package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/dmarulanda/muninet/internal/models"
)

// InvoiceIndex is the Elasticsearch index invoices are mirrored into.
const InvoiceIndex = "invoices"

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}
	return client, nil
}

// IndexInvoice mirrors an invoice document into the search index. The
// relational store stays the source of truth.
func IndexInvoice(ctx context.Context, es *elasticsearch.Client, inv models.Invoice) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	res, err := es.Index(
		InvoiceIndex,
		bytes.NewReader(data),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(inv.ID), 10)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index invoice: %s", res.Status())
	}
	return nil
}

// SearchInvoices runs a fuzzy multi_match over number, period, status
// and notes.
func SearchInvoices(ctx context.Context, es *elasticsearch.Client, query string, from, size int) (int64, []models.Invoice, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"number^2", "period", "status", "notes"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(InvoiceIndex),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search invoices: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 }             `json:"total"`
			Hits  []struct{ Source models.Invoice } `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	invs := make([]models.Invoice, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		invs[i] = hit.Source
	}
	return r.Hits.Total.Value, invs, nil
}
