// Package mcpserver exposes the workflow catalog via MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/domain"
)

// RegisterTools registers the read-only catalog tools on the given server.
func RegisterTools(server *mcp.Server, cat catalog.Catalog) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_workflows",
			Description: "List workflows filtered by app, status or IDs, sorted and paginated, with step execution history",
		},
		listWorkflowsHandler(cat),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_workflow",
			Description: "Get one workflow with per-step status and task runs",
		},
		getWorkflowHandler(cat),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "workflow_counts_by_status",
			Description: "Count workflows per status, zero-filled for every known status",
		},
		countsByStatusHandler(cat),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "unique_steps",
			Description: "List the distinct step names seen in task execution records",
		},
		uniqueStepsHandler(cat),
	)
}

type listWorkflowsInput struct {
	AppID string `json:"app_id,omitempty" jsonschema:"restrict to one tenant"`
	// WorkflowIDs absent means any workflow; an empty array matches nothing.
	WorkflowIDs  []string `json:"workflow_ids,omitempty" jsonschema:"restrict to these workflow IDs"`
	Status       string   `json:"status,omitempty" jsonschema:"a status or category: PENDING, STARTED, SUCCESS, FAILURE, REVOKED, DONE, ACTIVE, EXCEPTION"`
	OnlyActive   bool     `json:"only_active,omitempty" jsonschema:"only workflows that are pending or have a running task"`
	SortBy       string   `json:"sort_by,omitempty" jsonschema:"created_at, updated_at, name, app_id or status"`
	SortAsc      bool     `json:"sort_asc,omitempty"`
	Skip         int      `json:"skip,omitempty"`
	Limit        *int     `json:"limit,omitempty"`
	PrevTaskRuns bool     `json:"prev_task_runs,omitempty" jsonschema:"include earlier task runs of each step"`
}

func listWorkflowsHandler(cat catalog.Catalog) mcp.ToolHandlerFor[listWorkflowsInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input listWorkflowsInput) (*mcp.CallToolResult, any, error) {
		params := catalog.ListParams{
			AppID:      input.AppID,
			IDs:        catalog.AnyID(),
			Status:     input.Status,
			OnlyActive: input.OnlyActive,
			SortBy:     input.SortBy,
			SortAsc:    input.SortAsc,
			Skip:       input.Skip,
			Limit:      catalog.DefaultPageSize,
			Detail:     domain.Detail{LastTaskRun: true, PrevTaskRuns: input.PrevTaskRuns},
		}
		if input.WorkflowIDs != nil {
			params.IDs = catalog.OnlyIDs(input.WorkflowIDs...)
		}
		if input.Limit != nil {
			params.Limit = *input.Limit
		}

		result, err := cat.List(ctx, params)
		if err != nil {
			return toolError("list_workflows", err)
		}
		return textResult(result)
	}
}

type getWorkflowInput struct {
	WorkflowID   string `json:"workflow_id,omitempty"`
	PrevTaskRuns bool   `json:"prev_task_runs,omitempty"`
}

func getWorkflowHandler(cat catalog.Catalog) mcp.ToolHandlerFor[getWorkflowInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input getWorkflowInput) (*mcp.CallToolResult, any, error) {
		if input.WorkflowID == "" {
			return errorResult("workflow_id is required"), nil, nil
		}

		view, err := cat.Get(ctx, input.WorkflowID, domain.Detail{LastTaskRun: true, PrevTaskRuns: input.PrevTaskRuns})
		if err != nil {
			return toolError("get_workflow", err)
		}
		return textResult(view)
	}
}

type appInput struct {
	AppID string `json:"app_id,omitempty"`
}

func countsByStatusHandler(cat catalog.Catalog) mcp.ToolHandlerFor[appInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input appInput) (*mcp.CallToolResult, any, error) {
		counts, err := cat.CountsByStatus(ctx, input.AppID)
		if err != nil {
			return toolError("workflow_counts_by_status", err)
		}
		return textResult(counts)
	}
}

func uniqueStepsHandler(cat catalog.Catalog) mcp.ToolHandlerFor[appInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input appInput) (*mcp.CallToolResult, any, error) {
		steps, err := cat.UniqueSteps(ctx, input.AppID)
		if err != nil {
			return toolError("unique_steps", err)
		}
		return textResult(steps)
	}
}

// toolError reports caller mistakes as tool results the model can read and
// act on. Everything else is a protocol-level failure.
func toolError(tool string, err error) (*mcp.CallToolResult, any, error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorResult(verr.Error()), nil, nil
	case domain.IsNotFound(err):
		return errorResult(err.Error()), nil, nil
	}
	return nil, nil, fmt.Errorf("%s: %w", tool, err)
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
