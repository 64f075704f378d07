package vectordb

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/vectordb/internal/rerank"
)

// Retriever describes one search feeding a SearchEngine. It embeds the search
// text unless QueryVector is set, in which case it always searches QueryField
// with that vector.
type Retriever struct {
	Table           string
	PrimaryKeyField string // copied into "@id" of every hit; default "ID"
	QueryField      string
	QueryIndex      string
	QueryVector     []float64
	Response        []string
	Limit           int // default 2
	Filter          string
}

// SearchEngine runs several retrievers for one text and fuses their results
// with Reciprocal Rank Fusion.
type SearchEngine struct {
	client     *Client
	retrievers []Retriever
	reranker   *rerank.RRF
}

// SearchEngine creates an empty engine bound to c and its selected database.
func (c *Client) SearchEngine() *SearchEngine {
	return &SearchEngine{client: c}
}

// AddRetriever appends a retriever. It clears any reranker, which must be set
// again for the new retriever count.
func (e *SearchEngine) AddRetriever(r Retriever) *SearchEngine {
	if r.PrimaryKeyField == "" {
		r.PrimaryKeyField = "ID"
	}
	if r.Limit == 0 {
		r.Limit = 2
	}
	e.retrievers = append(e.retrievers, r)
	e.reranker = nil
	return e
}

// SetRRF sets the reranker. weights may be nil (uniform); otherwise its length
// must equal the number of retrievers. k <= 0 selects 50, limit <= 0 keeps all.
func (e *SearchEngine) SetRRF(weights []float64, k, limit int) error {
	if weights != nil && len(weights) != len(e.retrievers) {
		return fmt.Errorf("%w: %d weights for %d retrievers", ErrInvalidArgument, len(weights), len(e.retrievers))
	}
	e.reranker = rerank.NewRRF(weights, k, limit)
	return nil
}

// Search runs every retriever in order and fuses the hits.
func (e *SearchEngine) Search(ctx context.Context, text string) ([]Record, error) {
	if len(e.retrievers) == 0 {
		return nil, fmt.Errorf("%w: no retriever added to the search engine", ErrInvalidArgument)
	}
	if len(e.retrievers) > 1 && e.reranker == nil {
		return nil, fmt.Errorf("%w: more than one retriever requires a reranker", ErrInvalidArgument)
	}

	lists := make([][]map[string]any, 0, len(e.retrievers))
	for _, r := range e.retrievers {
		hits, err := e.retrieve(ctx, r, text)
		if err != nil {
			return nil, err
		}
		lists = append(lists, hits)
	}

	if e.reranker == nil {
		return toRecords(lists[0]), nil
	}
	fused, err := e.reranker.Rerank(lists)
	if err != nil {
		return nil, fmt.Errorf("vectordb: rerank: %w", err)
	}
	return toRecords(fused), nil
}

func (e *SearchEngine) retrieve(ctx context.Context, r Retriever, text string) ([]map[string]any, error) {
	var (
		resp *Response
		err  error
	)
	if len(r.QueryVector) > 0 {
		resp, err = e.client.Query(ctx, QueryRequest{
			Table:             r.Table,
			QueryField:        r.QueryField,
			QueryVectorDouble: r.QueryVector,
			Response:          r.Response,
			Limit:             r.Limit,
			WithDistance:      true,
			Filter:            r.Filter,
		})
	} else {
		resp, err = e.client.QueryText(ctx, TextQuery{
			Table:        r.Table,
			Text:         text,
			QueryField:   r.QueryField,
			QueryIndex:   r.QueryIndex,
			Response:     r.Response,
			Limit:        r.Limit,
			WithDistance: true,
			Filter:       r.Filter,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve from table %s: %w", r.Table, err)
	}
	if resp.StatusCode != http.StatusOK {
		serr := resp.Err()
		if serr == nil {
			serr = &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
		}
		return nil, fmt.Errorf("retrieve from table %s: %w", r.Table, serr)
	}

	recs, err := resp.Records()
	if err != nil {
		return nil, fmt.Errorf("retrieve from table %s: %w", r.Table, err)
	}
	hits := make([]map[string]any, len(recs))
	for i, rec := range recs {
		id, ok := rec[r.PrimaryKeyField]
		if !ok {
			return nil, fmt.Errorf("primary key field %s not found in the response from table %s",
				r.PrimaryKeyField, r.Table)
		}
		rec[rerank.IDKey] = id
		hits[i] = rec
	}
	return hits, nil
}

func toRecords(ms []map[string]any) []Record {
	out := make([]Record, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}
