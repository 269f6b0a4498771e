// Package docuforge implements a multi-agent document-analysis pipeline.
//
// A document is ingested, chunked and indexed, retrieved against, analyzed,
// written into a report, and verified for faithfulness. A supervisor routes
// between stages and a bounded reflection loop sends low-quality drafts back
// to the writer. All agents communicate exclusively through a single shared
// pipeline state; the graph driver applies stage updates one at a time until
// a terminal decision is reached.
//
// The core packages are:
//
//   - pipeline: the shared state record, merge semantics, and the router
//   - graph: the sequential state-graph execution engine
//   - verify: the claim-based faithfulness scorer and reflection controller
//   - agents: the stage functions wired into the graph
//
// Supporting collaborators live in ingest, rag, research, analysis, writer,
// report, and store.
package docuforge
