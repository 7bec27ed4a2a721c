// Package treescan exposes self-describing columnar tree files as
// relational row streams.
//
// Input files carry their own type metadata: a streamer catalog
// describing the classes stored in the file, and one or more trees whose
// branches hold big-endian columnar payloads, one per entry. Treescan
// turns that structure into a relational surface a query engine can
// consume:
//
//   - pkg/rio defines the reader contract (files, directories, trees,
//     branches, streamer metadata) plus basket decompression and input
//     enumeration. Reader implementations register an opener; the
//     riotest subpackage ships an in-memory one.
//   - pkg/streamer loads a file's streamer metadata into an immutable
//     catalog keyed by class name.
//   - pkg/att resolves each branch's declared type against the catalog
//     into an Abstract Schema Tree: the decode plan. Column whitelists
//     prune the plan; counters sizing retained arrays are kept as
//     hidden nodes.
//   - pkg/schema maps an ATT to an Arrow schema, dropping unsupported
//     columns with a warning and caching per catalog fingerprint.
//   - pkg/row iterates a tree entry by entry, decoding branch payloads
//     into rows following the plan.
//   - pkg/relation composes the above over a set of files: lazy schema
//     discovery from the first file, one row producer per file, and a
//     channel-based streaming facade with per-file error isolation.
//
// A minimal scan:
//
//	cfg := config.NewBaseConfig("events", "root")
//	cfg.Source.Path = "/data/2024"
//	cfg.Source.Tree = "Events"
//
//	rel, err := relation.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stream, err := rel.Stream(ctx, []string{"run", "pt"}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for row := range stream.Rows {
//	    process(row)
//	}
//	for err := range stream.Errors {
//	    log.Printf("file skipped: %v", err)
//	}
//
// Predicates passed to Scan or Stream are accepted for interface
// compatibility but not evaluated; row-level filtering stays with the
// host engine. Structural disagreement between files surfaces as a
// per-file schema_mismatch error rather than aborting the whole scan.
package treescan
