// Package fieldmap provides the document-field mapping and type-resolution
// core of a search index: typed field descriptors, conflict-checked mapping
// updates, and document-to-entry translation.
//
// The central type is Service. It owns the live mapper tree, an atomically
// published field-type registry snapshot, and the built-in metadata mappers
// (_id, _routing, _size, _all).
//
// # Quick Start
//
//	svc := fieldmap.New()
//
//	_, err := svc.ApplyMapping(ctx, []byte(`{
//	    "properties": {
//	        "title": {"type": "text", "boost": 2.0},
//	        "views": {"type": "long"}
//	    }
//	}`), fieldmap.ApplyOptions{})
//
//	doc, err := svc.ParseDocument(ctx, "1", "", []byte(`{
//	    "title": "hello world",
//	    "views": 42
//	}`))
//	for _, f := range doc.Fields() {
//	    fmt.Println(f.Name, f.Value)
//	}
//
// # Update Model
//
// Mapping updates are all-or-nothing: the incoming definition is merged
// against the live tree in a validation pass first, and only a fully
// conflict-free update mutates anything. ApplyOptions.Simulate runs the
// validation pass alone and reports every conflict. Readers are never
// blocked; they work against the last published registry snapshot.
//
// # Concurrency
//
// ApplyMapping calls are serialized internally. ParseDocument, Lookup and
// ExportMapping may run concurrently with each other and with updates; a
// parse observes one consistent snapshot for its whole duration.
package fieldmap
