package store

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/aleskucera/simview/internal/protocol"
)

// Document is a complete saved simulation: the static model plus every
// recorded state frame, the same {model, states} layout producers write.
type Document struct {
	Model  protocol.ModelMsg `json:"model"`
	States []protocol.Frame  `json:"states"`
}

// rawDocument defers decoding so each part can be schema-checked first.
type rawDocument struct {
	Model  json.RawMessage   `json:"model"`
	States []json.RawMessage `json:"states"`
}

// DecodeDocument validates and decodes a raw {model, states} payload.
// Validation is strict here, unlike frame application: a document that fails
// its schema is rejected whole, since serving half a simulation helps nobody.
func DecodeDocument(raw []byte) (*Document, error) {
	var rd rawDocument
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if len(rd.Model) == 0 {
		return nil, fmt.Errorf("document has no model")
	}
	if err := protocol.ValidateModel(rd.Model); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	doc := &Document{}
	if err := json.Unmarshal(rd.Model, &doc.Model); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	doc.States = make([]protocol.Frame, 0, len(rd.States))
	for i, rf := range rd.States {
		if err := protocol.ValidateState(rf); err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		var f protocol.Frame
		if err := json.Unmarshal(rf, &f); err != nil {
			return nil, fmt.Errorf("state %d: %w", i, err)
		}
		doc.States = append(doc.States, f)
	}
	return doc, nil
}

// LoadDocument reads a document from disk. ".zst" and ".gz" suffixes select
// the matching decompressor; anything else is read as plain JSON.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	case strings.HasSuffix(path, ".gz"):
		dec, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(raw)
}

// SaveDocument writes a document to disk, zstd-compressed when the path
// carries a ".zst" suffix.
func SaveDocument(path string, doc *Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return err
		}
		if _, err := enc.Write(b); err != nil {
			_ = enc.Close()
			_ = f.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
