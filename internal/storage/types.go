package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNotFound indicates that the requested document was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaTooNew indicates a document written by a newer binary.
	ErrSchemaTooNew = errors.New("document schema version too new")
)

// CurrentSchemaVersion is the version stamped on every document this binary writes.
const CurrentSchemaVersion = 1

// Document keys, one per engine.
const (
	KeyEmotion      = "emotion"
	KeyDrives       = "drives"
	KeyRelationship = "relationship"
	KeyTemporal     = "temporal"
	KeyQuirks       = "quirks"
	KeyProactive    = "proactive"
	KeyReflection   = "reflection"
	KeyMemory       = "memory"
	KeyDesires      = "desires"
	KeyCuriosity    = "curiosity"
	KeyOpinions     = "opinions"
	KeyPersona      = "persona"
)

// Document is one engine's persisted state.
type Document struct {
	// Key is the stable identifier of the owning engine.
	Key string `json:"key"`

	// SchemaVersion allows forward-compatible evolution of Data.
	SchemaVersion int `json:"schema_version"`

	// Data is the engine state encoded as JSON.
	Data json.RawMessage `json:"data"`

	// UpdatedAt is set by the backend on every Save.
	UpdatedAt time.Time `json:"updated_at"`
}

// VectorMatch is one nearest-neighbour result.
type VectorMatch struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// NewDocument encodes v as the payload of a current-version document.
func NewDocument(key string, v any) (*Document, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty document key", ErrInvalidInput)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return &Document{Key: key, SchemaVersion: CurrentSchemaVersion, Data: data}, nil
}

// Decode unmarshals the payload into v, rejecting documents from newer binaries.
func (d *Document) Decode(v any) error {
	if d.SchemaVersion > CurrentSchemaVersion {
		return fmt.Errorf("%w: %s has version %d, binary understands %d",
			ErrSchemaTooNew, d.Key, d.SchemaVersion, CurrentSchemaVersion)
	}
	if len(d.Data) == 0 {
		return fmt.Errorf("%w: %s has empty payload", ErrInvalidInput, d.Key)
	}
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.Key, err)
	}
	return nil
}

// ValidateDocument checks the invariants every backend enforces on Save.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidInput)
	}
	if doc.Key == "" {
		return fmt.Errorf("%w: empty document key", ErrInvalidInput)
	}
	if !json.Valid(doc.Data) {
		return fmt.Errorf("%w: document %s payload is not valid JSON", ErrInvalidInput, doc.Key)
	}
	return nil
}

// CosineSimilarity returns the cosine similarity of a and b, or 0 when the
// vectors differ in length or either is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
