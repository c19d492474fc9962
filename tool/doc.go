// Package tool maps tool names to handlers and dispatches the tool calls a
// model requests.
//
// Tools are registered once at startup:
//
//	type CommentArgs struct {
//	    OriginalArtifactID string `json:"original_artifact_id" jsonschema:"ID of the article to evaluate"`
//	}
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("write_comment", "Evaluate an article", func(ctx context.Context, args CommentArgs, emit event.Emitter) (string, error) {
//	        ...
//	    }),
//	)
//
// Handlers receive the run's event.Emitter explicitly, so code nested
// arbitrarily deep inside a tool can stream events to the client.
package tool
