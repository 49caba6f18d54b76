// internal/catalog/source.go
package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.json
var sampleData embed.FS

// Document is a raw collection file.
type Document struct {
	Name string
	Data []byte
}

// Source loads raw collection documents.
type Source interface {
	Load(ctx context.Context, collection string) (Document, error)
}

// FSSource reads <collection>.json, .yaml or .yml from a file system.
type FSSource struct {
	FS fs.FS
}

// SampleSource serves the bundled sample collections.
func SampleSource() FSSource {
	sub, _ := fs.Sub(sampleData, "data")
	return FSSource{FS: sub}
}

var extensions = []string{".json", ".yaml", ".yml"}

func (s FSSource) Load(ctx context.Context, collection string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	for _, ext := range extensions {
		name := collection + ext
		data, err := fs.ReadFile(s.FS, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Document{}, fmt.Errorf("read %s: %w", name, err)
		}
		return Document{Name: name, Data: data}, nil
	}
	return Document{}, fmt.Errorf("collection %q: %w", collection, fs.ErrNotExist)
}

// HTTPSource fetches <baseURL>/<collection>.json.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s HTTPSource) Load(ctx context.Context, collection string) (Document, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	name := collection + ".json"
	url := strings.TrimRight(s.BaseURL, "/") + "/" + name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: unexpected status code: %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", url, err)
	}
	return Document{Name: name, Data: data}, nil
}

func decode[T any](doc Document) ([]T, error) {
	var items []T
	switch strings.ToLower(path.Ext(doc.Name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(doc.Data, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Name, err)
		}
	default:
		if err := json.Unmarshal(doc.Data, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Name, err)
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
