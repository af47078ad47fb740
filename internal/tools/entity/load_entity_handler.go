package entity

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mkd-neo4j/neo4j-ogm/internal/session"
	"github.com/mkd-neo4j/neo4j-ogm/internal/tools"
)

// LoadEntityHandler returns the tool handler function for load-entity
func LoadEntityHandler(deps *tools.ToolDependencies) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleLoadEntity(ctx, request, deps)
	}
}

func handleLoadEntity(ctx context.Context, request mcp.CallToolRequest, deps *tools.ToolDependencies) (*mcp.CallToolResult, error) {
	if deps.Session == nil || deps.Metadata == nil {
		errMessage := "session is not initialized"
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	var args LoadEntityInput
	if err := request.BindArguments(&args); err != nil {
		slog.Error("error binding arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ID == nil && args.Label == "" {
		errMessage := "either id or label is required. Use describe-mapping to list the mapped labels."
		slog.Error(errMessage)
		return mcp.NewToolResultError(errMessage), nil
	}

	var opts []session.Option
	if args.Depth != nil {
		opts = append(opts, session.WithDepth(*args.Depth))
	}

	var entities []any
	if args.ID != nil {
		slog.Info("loading entity", "id", *args.ID)
		e, err := deps.Session.Load(ctx, *args.ID, opts...)
		if err != nil {
			slog.Error("failed to load entity", "id", *args.ID, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		entities = []any{e}
	} else {
		if _, err := deps.Metadata.TypeForLabel(args.Label); err != nil {
			slog.Error("unknown label", "label", args.Label, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		slog.Info("loading entities", "label", args.Label, "filters", len(args.Filters))
		loaded, err := deps.Session.LoadAll(ctx, args.Label, args.Filters, opts...)
		if err != nil {
			slog.Error("failed to load entities", "label", args.Label, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		entities = loaded
	}

	nodes := make([]Node, 0, len(entities))
	for _, e := range entities {
		n, err := Render(deps.Metadata, deps.Session.Context(), e)
		if err != nil {
			slog.Error("failed to render entity", "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if args.ID != nil && args.Label != "" && !slices.Contains(n.Labels, args.Label) {
			return mcp.NewToolResultError("node " + n.ID + " is not labelled " + args.Label), nil
		}
		nodes = append(nodes, n)
	}

	out, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		slog.Error("failed to encode entities", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	slog.Info("returning entities", "count", len(nodes))
	return mcp.NewToolResultText(string(out)), nil
}
