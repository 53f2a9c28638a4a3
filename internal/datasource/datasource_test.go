package datasource

import (
	"testing"

	"agereport/internal/datasource/file"
	"agereport/internal/datasource/httpds"
)

func TestFor(t *testing.T) {
	t.Parallel()

	if _, ok := For("https://example.com/data.csv", httpds.Config{}).(*httpds.Source); !ok {
		t.Fatal("URL did not select httpds.Source")
	}
	src, ok := For("data.csv", httpds.Config{}).(*file.Local)
	if !ok || src.Path() != "data.csv" {
		t.Fatalf("path did not select file.Local: %#v", src)
	}
}
