package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EmbeddingKey generates a cache key for the embedding of a text. The model
// is part of the key so switching embedding models never serves stale
// vectors.
func EmbeddingKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + text))
	return "veridoc:emb:v1:" + hex.EncodeToString(hash[:])
}

// EncodeVector serializes an embedding for cache storage
func EncodeVector(vec []float32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(vec)*4))
	for _, f := range vec {
		_ = binary.Write(buf, binary.LittleEndian, math.Float32bits(f))
	}
	return buf.Bytes()
}

// DecodeVector deserializes an embedding from cache storage
func DecodeVector(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		vec[i] = math.Float32frombits(bits)
	}
	return vec
}
