package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/model"
	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Qdrant stores rulings in a Qdrant collection over gRPC.
type Qdrant struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	ensureMu    sync.Mutex
	ensured     bool
}

// NewQdrant dials Qdrant at addr.
func NewQdrant(addr, collection string) (*Qdrant, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: qdrant collection is required", common.ErrMissingConfig)
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", addr, err)
	}
	return &Qdrant{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (q *Qdrant) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

// PointID derives the stable Qdrant point ID for a ruling number.
func PointID(rulingNumber string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("cbp-ruling:"+rulingNumber)).String()
}

// EnsureCollection creates the collection with cosine distance if missing.
func (q *Qdrant) EnsureCollection(ctx context.Context, dims int) error {
	q.ensureMu.Lock()
	defer q.ensureMu.Unlock()
	if q.ensured {
		return nil
	}

	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return common.UpstreamError("qdrant: list collections", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == q.collection {
			q.ensured = true
			return nil
		}
	}

	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return common.UpstreamError("qdrant: create collection "+q.collection, err)
	}
	q.ensured = true
	return nil
}

// Upsert stores one point. The id is hashed into a UUID and kept in the payload.
func (q *Qdrant) Upsert(ctx context.Context, id string, vector []float32, meta map[string]string) error {
	if err := q.EnsureCollection(ctx, len(vector)); err != nil {
		return err
	}

	payload := make(map[string]*pb.Value, len(meta)+1)
	for k, v := range meta {
		payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	if meta[model.MetaRulingNumber] == "" {
		payload[model.MetaRulingNumber] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: id}}
	}

	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(id)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vector},
				},
			},
			Payload: payload,
		}},
	})
	if err != nil {
		return common.UpstreamError("qdrant: upsert "+id, err)
	}
	return nil
}

// Query performs a k-NN search with payloads. A collection that does not
// exist yet is an empty index.
func (q *Qdrant) Query(ctx context.Context, vector []float32, k int) ([]model.Match, error) {
	resp, err := q.points.Search(ctx, &pb.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if status.Code(err) == codes.NotFound {
		return []model.Match{}, nil
	}
	if err != nil {
		return nil, common.UpstreamError("qdrant: search", err)
	}

	matches := make([]model.Match, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		meta := make(map[string]string, len(r.GetPayload()))
		for key, val := range r.GetPayload() {
			meta[key] = val.GetStringValue()
		}
		matches = append(matches, model.MatchFromMetadata(meta, float64(r.GetScore())))
	}
	return model.SortMatches(matches, k), nil
}
