package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"qa-analytics/internal/records"
	"qa-analytics/internal/visuals"
)

const (
	ToolAnalyzeDefects     = "analyze_defects"
	ToolAnalyzeWashRecipes = "analyze_wash_recipe_defects"
	ToolCompareDimensions  = "compare_dimensions"
)

type toolHandler = mcp.ToolHandlerFor[records.Filter, any]

func (s *Server) registerTools() error {
	schema, err := jsonschema.For[records.Filter](nil)
	if err != nil {
		return fmt.Errorf("failed to build filter schema: %w", err)
	}

	tools := []struct {
		tool    *mcp.Tool
		handler toolHandler
	}{
		{
			tool: &mcp.Tool{
				Name: ToolAnalyzeDefects,
				Description: "Aggregate garment defects by status, severity, fabric, style, composition, defect type, place and production line, " +
					"with a monthly trend and a wash-recipe section normalised against all defects. " +
					"Counts are weighted by defectCount; percentages are strings with one decimal.",
				InputSchema: schema,
			},
			handler: s.handleAnalyzeDefects,
		},
		{
			tool: &mcp.Tool{
				Name: ToolAnalyzeWashRecipes,
				Description: "Analyse laundry defects against the wash recipes of their orders: wash type, chemical, process, " +
					"binned max temperature, water volume and duration, and per-recipe defect density (top and bottom 10). " +
					"Fails if the laundry defect category is missing from the defect-type lookup.",
				InputSchema: schema,
			},
			handler: s.handleAnalyzeWashRecipes,
		},
		{
			tool: &mcp.Tool{
				Name: ToolCompareDimensions,
				Description: "Compare two defect dimensions. comparisonType: fabric-vs-style (default), composition-vs-defect or time-vs-severity. " +
					"Scatter points pair the two ranked breakdowns by rank, not by a shared key; read the Pearson correlation with that in mind. " +
					"correlation is null when it cannot be computed.",
				InputSchema: schema,
			},
			handler: s.handleCompareDimensions,
		},
	}

	for _, t := range tools {
		mcp.AddTool(s.mcp, t.tool, t.handler)
	}
	return nil
}

func (s *Server) handleAnalyzeDefects(ctx context.Context, _ *mcp.CallToolRequest, filter records.Filter) (*mcp.CallToolResult, any, error) {
	log.Debug().Str("tool", ToolAnalyzeDefects).Interface("filter", filter).Msg("Tool called")
	res, err := s.engine.GetDefectAnalytics(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	var charts []string
	if s.charts {
		charts = visuals.DefectCharts(res)
	}
	out, err := formatResult(res, charts)
	return out, nil, err
}

func (s *Server) handleAnalyzeWashRecipes(ctx context.Context, _ *mcp.CallToolRequest, filter records.Filter) (*mcp.CallToolResult, any, error) {
	log.Debug().Str("tool", ToolAnalyzeWashRecipes).Interface("filter", filter).Msg("Tool called")
	res, err := s.engine.GetWashRecipeDefectAnalytics(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	var charts []string
	if s.charts {
		charts = visuals.WashCharts(res)
	}
	out, err := formatResult(res, charts)
	return out, nil, err
}

func (s *Server) handleCompareDimensions(ctx context.Context, _ *mcp.CallToolRequest, filter records.Filter) (*mcp.CallToolResult, any, error) {
	log.Debug().Str("tool", ToolCompareDimensions).Interface("filter", filter).Msg("Tool called")
	res, err := s.engine.GetComparisonData(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	var charts []string
	if s.charts {
		charts = visuals.ComparisonCharts(res)
	}
	out, err := formatResult(res, charts)
	return out, nil, err
}
