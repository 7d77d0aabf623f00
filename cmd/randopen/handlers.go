package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/taigrr/randopen/internal/search"
	"github.com/taigrr/randopen/internal/types"
	"github.com/taigrr/randopen/internal/uri"
)

var (
	toolServices *services
	// toolMu keeps tool calls from interleaving on the cache.
	toolMu sync.Mutex
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve the file list to MCP clients over stdio",
		Long: `serve runs a Model Context Protocol server on stdin/stdout exposing the
pick, list and refresh tools for the given root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServices(cmd, args, opts)
			if err != nil {
				return err
			}
			toolServices = svc

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "randopen",
				Version: version,
			}, nil)

			registerTools(server)

			svc.logger.Info("serving", "root", svc.cfg.Root, "cache", svc.store.Path())
			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("error running server: %w", err)
			}
			return nil
		},
	}
}

func handlePick(ctx context.Context, req *mcp.CallToolRequest, input PickInput) (*mcp.CallToolResult, PickOutput, error) {
	toolMu.Lock()
	defer toolMu.Unlock()

	// stdout carries the protocol, so the audit trail is discarded.
	sel := toolServices.selector(nil, input.Refresh, !input.Open)
	selection, err := sel.Run(ctx)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, PickOutput{}, err
	}

	return nil, PickOutput{
		Path:   selection.Chosen,
		URI:    uri.FileURI(selection.Chosen),
		State:  string(selection.State),
		Total:  len(selection.Files),
		Opened: selection.Opened,
	}, nil
}

func handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	toolMu.Lock()
	defer toolMu.Unlock()

	files, err := toolServices.selector(nil, false, true).Cached(ctx)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListOutput{}, err
	}
	if files == nil {
		return nil, ListOutput{Files: []ListedFile{}}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(input.Offset, 0)

	results, total, err := search.Query(files, types.QueryParams{
		Query:         input.Query,
		UseRegex:      input.UseRegex,
		CaseSensitive: input.CaseSensitive,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListOutput{}, err
	}

	items := make([]ListedFile, 0, len(results))
	for _, r := range results {
		items = append(items, ListedFile{Index: r.Index, Path: r.Path, URI: r.URI})
	}

	return nil, ListOutput{
		Files:   items,
		Total:   total,
		HasMore: total > offset+len(items),
		Cached:  true,
	}, nil
}

func handleRefresh(ctx context.Context, req *mcp.CallToolRequest, input RefreshInput) (*mcp.CallToolResult, RefreshOutput, error) {
	toolMu.Lock()
	defer toolMu.Unlock()

	files, err := toolServices.selector(nil, true, true).Rebuild(ctx)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RefreshOutput{}, err
	}

	return nil, RefreshOutput{
		CachePath: toolServices.store.Path(),
		Total:     len(files),
	}, nil
}
