package render

import (
	"testing"

	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

// FuzzExport feeds arbitrary documents through the engine and every exporter.
// Run with: go test -fuzz=FuzzExport -fuzztime=30s ./pkg/render/
func FuzzExport(f *testing.F) {
	// Seed with valid documents
	f.Add([]byte(`{"nodes":[{"id":"a"},{"id":"b","x":400}],"links":[{"id":"ab","sourceId":"a","targetId":"b"}]}`))
	f.Add([]byte(`{"nodes":[{"id":"a"},{"id":"b","x":400},{"id":"c","y":300,"shape":"circle"}],
		"links":[{"id":"ab","sourceId":"a","targetId":"b","controlPointOffset":{"x":0,"y":50}},
		{"id":"br","targetId":"c","isBranch":true,"parentLinkId":"ab","branchAnchorPosition":{"x":200,"y":40}}]}`))

	// Seed with edge cases
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(``))
	f.Add([]byte(`{"nodes":[{"id":"a"}],"links":[{"id":"aa","sourceId":"a","targetId":"a"}]}`))
	f.Add([]byte(`{"nodes":[{"id":"a","sizeHint":-5}],"links":[{"id":"x","targetId":"a","isBranch":true,"parentLinkId":"x"}]}`))
	f.Add([]byte(`{"links":[{"id":"ab","sourceId":"a","targetId":"b"}]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		d, err := diagram.ParseJSON(data)
		if err != nil {
			return
		}

		// Should not panic
		e := topology.New(d, topology.DefaultOptions())
		e.DeriveMissingAnchors()
		_ = SVG(e, DefaultSVGOptions())
		_ = DOT(e, "fuzz")

		opts := DefaultOptions()
		opts.Width, opts.Height = 64, 48
		if _, err := Image(e, opts); err != nil {
			t.Fatalf("Image: %v", err)
		}

		e.Cleanup()
		if r := e.Validate(); len(r.Dangling) > 0 {
			t.Fatalf("dangling links after cleanup: %v", r.Dangling)
		}
	})
}
