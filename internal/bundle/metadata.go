package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// encodeMetadata renders metadata as a YAML frontmatter document. The file
// holds nothing but the frontmatter block.
func encodeMetadata(meta Metadata) ([]byte, error) {
	encoded, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	var b strings.Builder
	b.WriteString(frontmatterDelimiter + "\n")
	b.Write(encoded)
	b.WriteString(frontmatterDelimiter + "\n")
	return []byte(b.String()), nil
}

// decodeMetadata parses a YAML frontmatter document written by
// encodeMetadata. Unknown fields are rejected so a typo in a hand-edited
// file surfaces as a load error instead of silently dropping state.
func decodeMetadata(data []byte) (Metadata, error) {
	var meta Metadata
	text := string(data)
	if !strings.HasPrefix(text, frontmatterDelimiter) {
		return meta, fmt.Errorf("metadata: missing frontmatter delimiter")
	}
	rest := strings.TrimPrefix(text, frontmatterDelimiter)
	front, _, found := strings.Cut(rest, "\n"+frontmatterDelimiter)
	if !found {
		return meta, fmt.Errorf("metadata: unterminated frontmatter")
	}

	decoder := yaml.NewDecoder(strings.NewReader(front))
	decoder.KnownFields(true)
	if err := decoder.Decode(&meta); err != nil && !errors.Is(err, io.EOF) {
		return meta, fmt.Errorf("metadata: parse frontmatter: %w", err)
	}
	return meta, nil
}

func readMetadataFile(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	return decodeMetadata(data)
}
