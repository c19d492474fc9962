// Package agui adapts synphora runs to the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an event-based protocol that
// standardizes how agents connect to user-facing applications. This
// package converts synphora events and messages to their AG-UI forms so
// that an AG-UI frontend can drive the agent.
//
// # Usage
//
// Create a Mapper for each run and feed it every event the run emits:
//
//	mapper := agui.NewMapper(input.ThreadID, input.RunID)
//	for e := range sink.Drain(ctx) {
//	    for _, ev := range mapper.MapEvent(e) {
//	        writeEvent(ev)
//	    }
//	}
//
// # Event Mapping
//
//   - RunStarted, RunFinished → RUN_STARTED, RUN_FINISHED
//   - TextMessage → TEXT_MESSAGE_START (first piece of a message id),
//     TEXT_MESSAGE_CONTENT; TEXT_MESSAGE_END when the next non-matching
//     event arrives
//   - Artifact lifecycle events → CUSTOM events named artifact_content_start,
//     artifact_content_chunk, artifact_content_complete and
//     artifact_list_updated, carrying the synphora payload as value
//
// The package does NOT provide HTTP handlers; the server package writes
// the mapped events as SSE.
//
// # Thread Safety
//
// The Mapper is NOT safe for concurrent use. Message conversion functions
// are stateless and safe for concurrent use.
package agui
