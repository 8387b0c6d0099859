package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/WessleyAI/occumatch/engine/embed"
)

// --- Mocks ---

type mockPoints struct {
	searchResp *pb.SearchResponse
	searchErr  error
	lastReq    *pb.SearchPoints
}

func (m *mockPoints) Search(_ context.Context, req *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.lastReq = req
	return m.searchResp, m.searchErr
}

type mockCollections struct {
	getResp *pb.GetCollectionInfoResponse
	getErr  error
}

func (m *mockCollections) Get(_ context.Context, _ *pb.GetCollectionInfoRequest, _ ...grpc.CallOption) (*pb.GetCollectionInfoResponse, error) {
	return m.getResp, m.getErr
}

func collectionInfo(size uint64) *pb.GetCollectionInfoResponse {
	return &pb.GetCollectionInfoResponse{
		Result: &pb.CollectionInfo{
			Config: &pb.CollectionConfig{
				Params: &pb.CollectionParams{
					VectorsConfig: &pb.VectorsConfig{
						Config: &pb.VectorsConfig_Params{
							Params: &pb.VectorParams{Size: size, Distance: pb.Distance_Cosine},
						},
					},
				},
			},
		},
	}
}

func strVal(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// --- Tests ---

func TestNewWithClients(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{}, "test")
	if vs == nil {
		t.Fatal("expected non-nil")
	}
	if err := vs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestVerifyCollection_OK(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{getResp: collectionInfo(384)}, "test")
	if err := vs.VerifyCollection(context.Background(), 384); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyCollection_WrongDims(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{getResp: collectionInfo(1536)}, "test")
	err := vs.VerifyCollection(context.Background(), 384)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestVerifyCollection_NamedVectors(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{getResp: &pb.GetCollectionInfoResponse{Result: &pb.CollectionInfo{}}}, "test")
	if err := vs.VerifyCollection(context.Background(), 384); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestVerifyCollection_Unavailable(t *testing.T) {
	vs := NewWithClients(&mockPoints{}, &mockCollections{getErr: errors.New("rpc fail")}, "test")
	if err := vs.VerifyCollection(context.Background(), 384); !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
}

func TestSearch_Success(t *testing.T) {
	pts := &mockPoints{
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "uuid-1"}},
					Score: 0.92,
					Payload: map[string]*pb.Value{
						"occupationTitle": strVal("Electrician"),
						"code":            strVal("7411"),
						"rank":            {Kind: &pb.Value_IntegerValue{IntegerValue: 3}},
						"weight":          {Kind: &pb.Value_DoubleValue{DoubleValue: 0.5}},
						"active":          {Kind: &pb.Value_BoolValue{BoolValue: true}},
						"skills": {Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{
							Values: []*pb.Value{strVal("Wiring"), strVal("Circuits")},
						}}},
						"extra": {Kind: &pb.Value_StructValue{StructValue: &pb.Struct{
							Fields: map[string]*pb.Value{"k": strVal("v")},
						}}},
						"none": {Kind: &pb.Value_NullValue{}},
					},
				},
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: 42}},
					Score: 0.41,
				},
			},
		},
	}
	vs := NewWithClients(pts, &mockCollections{}, "occupations")

	results, err := vs.Search(context.Background(), embed.New(4).Embed("electrical wiring"), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	r := results[0]
	if r.ID != "uuid-1" || r.Metadata["occupationTitle"] != "Electrician" {
		t.Fatalf("unexpected first result %+v", r)
	}
	if r.Metadata["rank"] != int64(3) || r.Metadata["weight"] != 0.5 || r.Metadata["active"] != true {
		t.Fatalf("scalar payload not preserved: %+v", r.Metadata)
	}
	if skills, ok := r.Metadata["skills"].([]any); !ok || len(skills) != 2 || skills[1] != "Circuits" {
		t.Fatalf("list payload not preserved: %v", r.Metadata["skills"])
	}
	if extra, ok := r.Metadata["extra"].(map[string]any); !ok || extra["k"] != "v" {
		t.Fatalf("struct payload not preserved: %v", r.Metadata["extra"])
	}
	if v, ok := r.Metadata["none"]; !ok || v != nil {
		t.Fatalf("null payload not preserved: %v", v)
	}
	if results[1].ID != "42" {
		t.Fatalf("expected numeric id 42, got %s", results[1].ID)
	}
	if pts.lastReq.GetLimit() != 3 || pts.lastReq.GetCollectionName() != "occupations" || len(pts.lastReq.GetVector()) != 4 {
		t.Fatalf("unexpected request %+v", pts.lastReq)
	}
}

func TestSearch_EmptyIsNotError(t *testing.T) {
	vs := NewWithClients(&mockPoints{searchResp: &pb.SearchResponse{}}, &mockCollections{}, "test")
	results, err := vs.Search(context.Background(), embed.New(4).Embed("nothing here"), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}

func TestSearch_Error(t *testing.T) {
	vs := NewWithClients(&mockPoints{searchErr: errors.New("connection refused")}, &mockCollections{}, "test")
	results, err := vs.Search(context.Background(), embed.New(4).Embed("query"), 3)
	if !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if results != nil {
		t.Fatal("expected nil results on error")
	}
}

func TestSearch_ClampsTopK(t *testing.T) {
	pts := &mockPoints{searchResp: &pb.SearchResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "test")
	if _, err := vs.Search(context.Background(), embed.New(4).Embed("query"), 0); err != nil {
		t.Fatal(err)
	}
	if pts.lastReq.GetLimit() != 1 {
		t.Fatalf("expected limit 1, got %d", pts.lastReq.GetLimit())
	}
}
