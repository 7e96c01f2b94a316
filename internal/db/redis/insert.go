package redis

import (
	"context"
	"encoding/binary"
	"errors"
	"math"

	"github.com/kailas-cloud/vpsearch/internal/db"
)

// Insert writes a document as a hash. Vectors are stored as FLOAT32 little-endian blobs.
// An existing key is never overwritten.
func (s *Store) Insert(ctx context.Context, doc *db.Document) error {
	if doc.Key == "" {
		return &db.Error{Op: db.OpHSet, Err: errors.New("key is required")}
	}
	if len(doc.Fields) == 0 && len(doc.Vectors) == 0 {
		return &db.Error{Op: db.OpHSet, Err: errors.New("document has no fields")}
	}

	exists, err := s.exists(ctx, doc.Key)
	if err != nil {
		return err
	}
	if exists {
		return db.ErrKeyExists
	}

	cmd := s.b().Hset().Key(doc.Key).FieldValue()
	for k, v := range doc.Fields {
		cmd = cmd.FieldValue(k, v)
	}
	for k, v := range doc.Vectors {
		cmd = cmd.FieldValue(k, vectorToBytes(v))
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	cmd := s.b().Exists().Key(key).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return count > 0, nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
