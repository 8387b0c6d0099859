package semantic

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/WessleyAI/occumatch/engine/embed"
)

// pointsSearcher is the subset of pb.PointsClient used here.
type pointsSearcher interface {
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// collectionsGetter is the subset of pb.CollectionsClient used here.
type collectionsGetter interface {
	Get(ctx context.Context, in *pb.GetCollectionInfoRequest, opts ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error)
}

// VectorStore queries an externally populated Qdrant collection.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pointsSearcher
	collections collectionsGetter
	collection  string
}

// Options configures the Qdrant connection.
type Options struct {
	APIKey string
	TLS    bool
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr, collection string, opts Options) (*VectorStore, error) {
	creds := insecure.NewCredentials()
	if opts.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	dial := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if opts.APIKey != "" {
		dial = append(dial, grpc.WithUnaryInterceptor(apiKeyInterceptor(opts.APIKey)))
	}

	conn, err := grpc.NewClient(addr, dial...)
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients builds a VectorStore over pre-built clients (tests, custom transports).
func NewWithClients(points pointsSearcher, collections collectionsGetter, collection string) *VectorStore {
	return &VectorStore{points: points, collections: collections, collection: collection}
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	if v.conn == nil {
		return nil
	}
	return v.conn.Close()
}

// VerifyCollection checks that the collection exists and stores vectors
// of the given size. It never creates or alters the collection.
func (v *VectorStore) VerifyCollection(ctx context.Context, dims int) error {
	resp, err := v.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: v.collection})
	if err != nil {
		return fmt.Errorf("semantic: get collection %s: %w: %w", v.collection, ErrSearchUnavailable, err)
	}
	params := resp.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return fmt.Errorf("semantic: collection %s has no single vector config: %w", v.collection, ErrDimensionMismatch)
	}
	if got := int(params.GetSize()); got != dims {
		return fmt.Errorf("semantic: collection %s has %d dims, want %d: %w", v.collection, got, dims, ErrDimensionMismatch)
	}
	return nil
}

// Search performs k-NN similarity search.
func (v *VectorStore) Search(ctx context.Context, vec embed.Vector, topK int) ([]Match, error) {
	if topK < 1 {
		topK = 1
	}
	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         vec.Float32(),
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w: %w", ErrSearchUnavailable, err)
	}

	results := make([]Match, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		md := make(map[string]any, len(r.GetPayload()))
		for k, val := range r.GetPayload() {
			md[k] = valueToAny(val)
		}
		results[i] = Match{
			ID:       pointID(r.GetId()),
			Score:    float64(r.GetScore()),
			Metadata: md,
		}
	}
	return results, nil
}

func pointID(id *pb.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func valueToAny(v *pb.Value) any {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return k.IntegerValue
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_ListValue:
		vals := k.ListValue.GetValues()
		out := make([]any, len(vals))
		for i, e := range vals {
			out[i] = valueToAny(e)
		}
		return out
	case *pb.Value_StructValue:
		fields := k.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for name, e := range fields {
			out[name] = valueToAny(e)
		}
		return out
	default:
		return nil
	}
}
