package vectorindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// originalIDField stores the caller-supplied external id in the point
// payload, since Qdrant point ids must be UUIDs or positive integers.
// Grounded on the teacher's Qdrant vector store
// (manifold/internal/persistence/databases/qdrant_vector.go), adapted from
// its metadata-filtered Upsert/Delete/SimilaritySearch contract to this
// package's id-batch Add/Search/Remove contract.
const originalIDField = "_original_id"

type qdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrant connects to a Qdrant collection (creating it if absent) and
// returns a Store backed by it, for deployments that select
// VECTOR_BACKEND=qdrant over the default in-process flat index.
func NewQdrant(dsn, collection string, dimension int) (Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("vectorindex: qdrant collection name required")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: parse qdrant dsn: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := 6334
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	cfg := &qdrant.Config{Host: host, Port: port, UseTLS: u.Scheme == "https"}
	if apiKey := u.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: create qdrant client: %w", err)
	}
	qs := &qdrantStore{client: client, collection: collection, dimension: dimension}
	if err := qs.ensureCollection(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	return contextlessStore{
		ctx:    context.Background(),
		add:    qs.add,
		search: qs.search,
		remove: qs.remove,
	}, nil
}

func (q *qdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("vectorindex: check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}
	if q.dimension <= 0 {
		return fmt.Errorf("vectorindex: qdrant requires dimension > 0")
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Euclid,
		}),
	})
}

func pointIDFor(externalID string) (*qdrant.PointId, string) {
	if _, err := uuid.Parse(externalID); err == nil {
		return qdrant.NewIDUUID(externalID), ""
	}
	derived := uuid.NewSHA1(uuid.NameSpaceOID, []byte(externalID)).String()
	return qdrant.NewIDUUID(derived), externalID
}

func (q *qdrantStore) add(ctx context.Context, vectors [][]float32, ids []string) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("vectorindex: %d vectors but %d ids", len(vectors), len(ids))
	}
	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for i, v := range vectors {
		if len(v) != q.dimension {
			return ErrDimensionMismatch
		}
		pid, original := pointIDFor(ids[i])
		var payload map[string]*qdrant.Value
		if original != "" {
			payload = qdrant.NewValueMap(map[string]any{originalIDField: original})
		}
		vec := make([]float32, len(v))
		copy(vec, v)
		points = append(points, &qdrant.PointStruct{
			Id:      pid,
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: payload,
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: q.collection, Points: points})
	return err
}

func (q *qdrantStore) remove(ctx context.Context, ids []string) error {
	pids := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pid, _ := pointIDFor(id)
		pids = append(pids, pid)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(pids...),
	})
	return err
}

func (q *qdrantStore) search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	vec := make([]float32, len(query))
	copy(vec, query)
	limit := uint64(k)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(hits))
	for _, hit := range hits {
		id := hit.Id.GetUuid()
		if hit.Payload != nil {
			if v, ok := hit.Payload[originalIDField]; ok {
				id = v.GetStringValue()
			}
		}
		out = append(out, Result{ID: id, Distance: float64(hit.Score)})
	}
	return out, nil
}
