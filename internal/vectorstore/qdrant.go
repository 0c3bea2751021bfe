package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nidhogg/mentat/internal/attention"
)

// Config holds connection settings for a Qdrant instance.
type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Index keeps graph node embeddings searchable so collaborators can pick
// stimulation contexts by similarity. The attention engine itself never
// depends on this; it is a side index refreshed from snapshots.
type Index struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	ensureOnce  sync.Once
}

// SimilarNode is one nearest-neighbor hit.
type SimilarNode struct {
	NodeID string
	Type   string
	Score  float32
}

// NewIndex dials the Qdrant gRPC endpoint.
func NewIndex(cfg Config, collection string) (*Index, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect %s: %w", addr, err)
	}
	return &Index{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		collection:  collection,
	}, nil
}

// EnsureCollection creates the index collection if it does not exist.
func (ix *Index) EnsureCollection(ctx context.Context, dimension uint64) error {
	_, err := ix.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: ix.collection})
	if err == nil {
		return nil
	}
	_, err = ix.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: ix.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", ix.collection, err)
	}
	return nil
}

// UpsertNode indexes one node's embedding with its type and current STI as
// payload. Nodes without embeddings are skipped silently.
func (ix *Index) UpsertNode(ctx context.Context, node *attention.GraphNode, av attention.AttentionValue) error {
	if node == nil || len(node.Embedding) == 0 {
		return nil
	}
	// The collection dimension comes from the first embedding seen.
	var ensureErr error
	ix.ensureOnce.Do(func() {
		ensureErr = ix.EnsureCollection(ctx, uint64(len(node.Embedding)))
	})
	if ensureErr != nil {
		return ensureErr
	}
	payload := map[string]*pb.Value{
		"node_id": {Kind: &pb.Value_StringValue{StringValue: node.ID}},
		"type":    {Kind: &pb.Value_StringValue{StringValue: node.Type}},
		"sti":     {Kind: &pb.Value_StringValue{StringValue: strconv.Itoa(av.STI)}},
	}
	_, err := ix.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: ix.collection,
		Points: []*pb.PointStruct{
			{
				Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: deterministicID(node.ID)}},
				Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: node.Embedding}}},
				Payload: payload,
			},
		},
	})
	return err
}

// SimilarNodes returns the topK nearest nodes to the query vector.
func (ix *Index) SimilarNodes(ctx context.Context, vector []float32, topK uint64) ([]*SimilarNode, error) {
	resp, err := ix.points.Search(ctx, &pb.SearchPoints{
		CollectionName: ix.collection,
		Vector:         vector,
		Limit:          topK,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", ix.collection, err)
	}
	results := make([]*SimilarNode, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := &SimilarNode{Score: r.Score}
		if v, ok := r.Payload["node_id"]; ok {
			if sv, ok := v.Kind.(*pb.Value_StringValue); ok {
				hit.NodeID = sv.StringValue
			}
		}
		if v, ok := r.Payload["type"]; ok {
			if sv, ok := v.Kind.(*pb.Value_StringValue); ok {
				hit.Type = sv.StringValue
			}
		}
		results = append(results, hit)
	}
	return results, nil
}

// Close tears down the underlying gRPC connection.
func (ix *Index) Close() error {
	return ix.conn.Close()
}

// deterministicID maps a node id to a stable UUID so re-indexing the same
// node overwrites its point instead of duplicating it.
func deterministicID(nodeID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(nodeID)).String()
}
