package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/vpsearch/internal/db"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/filter"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(errors.New("connection refused"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- insert.go tests ---

func TestInsert_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var hset []string
	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXISTS", "vpsearch:person:1")).
			Return(mock.Result(mock.RedisInt64(0))),
		c.EXPECT().
			Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
				hset = cmd
				return cmd[0] == "HSET" && cmd[1] == "vpsearch:person:1"
			})).
			Return(mock.Result(mock.RedisInt64(3))),
	)

	s := NewStoreForTest(c)
	err := s.Insert(context.Background(), &db.Document{
		Key:     "vpsearch:person:1",
		Fields:  map[string]string{"name": "Alice", "normalizedRole": "VP"},
		Vectors: map[string][]float32{"roleVector": {1, -0.5}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fields := map[string]string{}
	for i := 2; i+1 < len(hset); i += 2 {
		fields[hset[i]] = hset[i+1]
	}
	if fields["name"] != "Alice" || fields["normalizedRole"] != "VP" {
		t.Errorf("unexpected HSET fields: %v", fields)
	}
	blob := fields["roleVector"]
	if len(blob) != 8 {
		t.Fatalf("vector blob len = %d, want 8", len(blob))
	}
	second := math.Float32frombits(binary.LittleEndian.Uint32([]byte(blob[4:8])))
	if second != -0.5 {
		t.Errorf("decoded vector[1] = %v, want -0.5", second)
	}
}

func TestInsert_KeyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "k")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.Insert(context.Background(), &db.Document{Key: "k", Fields: map[string]string{"a": "b"}})
	if !errors.Is(err, db.ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}
}

func TestInsert_WriteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "k")).
		Return(mock.Result(mock.RedisInt64(0)))
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "HSET" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Insert(context.Background(), &db.Document{Key: "k", Fields: map[string]string{"a": "b"}})
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %T (%v)", err, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped DeadlineExceeded, got %v", err)
	}
}

func TestInsert_ExistsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Insert(context.Background(), &db.Document{Key: "k", Fields: map[string]string{"a": "b"}})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpExists {
		t.Fatalf("expected EXISTS db.Error, got %v", err)
	}
}

func TestInsert_Invalid(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.Insert(context.Background(), &db.Document{}); err == nil {
		t.Error("expected error for empty key")
	}
	if err := s.Insert(context.Background(), &db.Document{Key: "k"}); err == nil {
		t.Error("expected error for empty document")
	}
}

// --- kv.go tests ---

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.Result(mock.RedisString("payload")))

	s := NewStoreForTest(c)
	got, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q", got)
	}
}

func TestSetWithTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "PX", "1500")).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	// секундный EX обрезал бы 1.5s до 1s
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 1500*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetWithTTL(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "k", []byte("v")); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

// --- index.go tests ---

func buildIndex(t *testing.T, b *db.IndexBuilder) *db.IndexDefinition {
	t.Helper()
	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return def
}

func personIndex(t *testing.T) *db.IndexDefinition {
	return buildIndex(t, db.NewIndex("vector_index", "vpsearch:person:").
		Filters("normalizedRole", "embeddingModel").
		Vector("roleVector", db.VectorSpec{Dim: 1536, M: 16, EFConstruct: 200}))
}

func TestBuildCreateArgs(t *testing.T) {
	args, err := buildCreateArgs(personIndex(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "vector_index ON HASH PREFIX 1 vpsearch:person: SCHEMA " +
		"normalizedRole TAG CASESENSITIVE embeddingModel TAG CASESENSITIVE " +
		"roleVector VECTOR HNSW 10 TYPE FLOAT32 DIM 1536 DISTANCE_METRIC COSINE M 16 EF_CONSTRUCTION 200"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildCreateArgs_EFRuntime(t *testing.T) {
	def := buildIndex(t, db.NewIndex("idx").Vector("v", db.VectorSpec{Dim: 4, EFRuntime: 50}))
	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(args, " "); !strings.HasSuffix(got, "VECTOR HNSW 8 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE EF_RUNTIME 50") {
		t.Errorf("args = %s", got)
	}
}

func TestBuildCreateArgs_Flat(t *testing.T) {
	def := buildIndex(t, db.NewIndex("idx", "vpsearch:person:").
		Filters("normalizedRole").
		Vector("roleVector", db.VectorSpec{Algorithm: db.VectorFlat, Dim: 4, M: 16}))
	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "idx ON HASH PREFIX 1 vpsearch:person: SCHEMA normalizedRole TAG CASESENSITIVE " +
		"roleVector VECTOR FLAT 6 TYPE FLOAT32 DIM 4 DISTANCE_METRIC COSINE"
	if got := strings.Join(args, " "); got != want {
		t.Errorf("args =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildCreateArgs_Invalid(t *testing.T) {
	if _, err := buildCreateArgs(&db.IndexDefinition{Name: "idx"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.CREATE" })).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	if err := s.CreateIndex(context.Background(), personIndex(t)); !errors.Is(err, db.ErrIndexExists) {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.CREATE" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.CreateIndex(context.Background(), personIndex(t)); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestDropIndex_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "vector_index")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c)
	if err := s.DropIndex(context.Background(), "vector_index"); !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "vector_index")).
			Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("vector_index")))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("FT.INFO", "vector_index")).
			Return(mock.Result(mock.RedisError("Unknown Index name"))),
	)

	s := NewStoreForTest(c)
	ok, err := s.IndexExists(context.Background(), "vector_index")
	if err != nil || !ok {
		t.Fatalf("IndexExists = %v, %v; want true", ok, err)
	}
	ok, err = s.IndexExists(context.Background(), "vector_index")
	if err != nil || ok {
		t.Fatalf("IndexExists = %v, %v; want false", ok, err)
	}
}

// --- search.go tests ---

func vpFilter(t *testing.T) filter.Expression {
	t.Helper()
	role, _ := filter.NewMatch("normalizedRole", "VP")
	model, _ := filter.NewMatch("embeddingModel", "text-embedding-ada-002")
	expr, err := filter.NewExpression(role, model)
	if err != nil {
		t.Fatal(err)
	}
	return expr
}

func TestBuildKNNArgs(t *testing.T) {
	args, err := buildKNNArgs(&db.KNNQuery{
		IndexName:     "vector_index",
		VectorField:   "roleVector",
		Vector:        []float32{1, 0},
		Filters:       vpFilter(t),
		K:             2,
		NumCandidates: 100,
		ReturnFields:  []string{"name", "role"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantQuery := `(@normalizedRole:{VP} @embeddingModel:{text\-embedding\-ada\-002})` +
		`=>[KNN 2 @roleVector $BLOB EF_RUNTIME $EF AS __vector_score]`
	if args[1] != wantQuery {
		t.Errorf("query =\n%s\nwant\n%s", args[1], wantQuery)
	}

	joined := strings.Join(args, " ")
	for _, part := range []string{
		"RETURN 3 name role __vector_score",
		"SORTBY __vector_score ASC",
		"LIMIT 0 2",
		"PARAMS 4 BLOB",
		"EF 100 DIALECT 2",
	} {
		if !strings.Contains(joined, part) {
			t.Errorf("args missing %q: %q", part, joined)
		}
	}
}

func TestBuildKNNArgs_NoFilterNoCandidates(t *testing.T) {
	args, err := buildKNNArgs(&db.KNNQuery{
		IndexName:   "idx",
		VectorField: "v",
		Vector:      []float32{1},
		K:           5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args[1] != "*=>[KNN 5 @v $BLOB AS __vector_score]" {
		t.Errorf("query = %q", args[1])
	}
	if strings.Contains(strings.Join(args, " "), "RETURN") {
		t.Error("RETURN should be omitted without return fields")
	}
}

func TestBuildKNNArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		q    db.KNNQuery
	}{
		{"no index", db.KNNQuery{VectorField: "v", Vector: []float32{1}, K: 1}},
		{"no field", db.KNNQuery{IndexName: "i", Vector: []float32{1}, K: 1}},
		{"no vector", db.KNNQuery{IndexName: "i", VectorField: "v", K: 1}},
		{"zero k", db.KNNQuery{IndexName: "i", VectorField: "v", Vector: []float32{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildKNNArgs(&tt.q); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSearchKNN_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[1] == "vector_index"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("vpsearch:person:1"),
			mock.RedisArray(
				mock.RedisString("name"), mock.RedisString("Alice"),
				mock.RedisString("__vector_score"), mock.RedisString("0.1"), // distance 0.1 -> similarity 0.9
			),
			mock.RedisString("vpsearch:person:2"),
			mock.RedisArray(
				mock.RedisString("name"), mock.RedisString("Zed"),
				mock.RedisString("__vector_score"), mock.RedisString("1.5"), // opposite-ish -> -0.5
			),
		)))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:   "vector_index",
		VectorField: "roleVector",
		Vector:      []float32{0.1, 0.2},
		K:           10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 || len(result.Entries) != 2 {
		t.Fatalf("got total=%d entries=%d", result.Total, len(result.Entries))
	}
	e := result.Entries[0]
	if e.Key != "vpsearch:person:1" || e.Fields["name"] != "Alice" {
		t.Errorf("entry[0] = %+v", e)
	}
	if math.Abs(e.Score-0.9) > 1e-9 {
		t.Errorf("score = %f, want 0.9", e.Score)
	}
	if _, ok := e.Fields["__vector_score"]; ok {
		t.Error("__vector_score should be removed from fields")
	}
	if math.Abs(result.Entries[1].Score+0.5) > 1e-9 {
		t.Errorf("negative similarity not preserved: %f", result.Entries[1].Score)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	result, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx", VectorField: "v", Vector: []float32{0.1}, K: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(result.Entries))
	}
}

func TestSearchKNN_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx", VectorField: "v", Vector: []float32{0.1}, K: 10,
	})
	if !isDBError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped db.Error, got %v", err)
	}
}

func TestSearchKNN_UnknownIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisError("vector_index: no such index")))

	s := NewStoreForTest(c)
	_, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "vector_index", VectorField: "v", Vector: []float32{0.1}, K: 1,
	})
	if !errors.Is(err, db.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestBuildTagFilter_Escaping(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"VP", "@normalizedRole:{VP}"},
		{"Senior VP", `@normalizedRole:{Senior\ VP}`},
		{"C-Level", `@normalizedRole:{C\-Level}`},
		{"a|b", `@normalizedRole:{a\|b}`},
	}
	for _, tt := range tests {
		if got := buildTagFilter("normalizedRole", tt.value); got != tt.want {
			t.Errorf("buildTagFilter(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
