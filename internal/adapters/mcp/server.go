package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tripforge/itinerary-ai/internal/core/domain"
	"github.com/tripforge/itinerary-ai/internal/core/ports"
)

// mcpClientID identifies MCP sessions to the per-client admission limiter.
const mcpClientID = "mcp"

// Server exposes the itinerary pipeline as MCP tools over stdio.
type Server struct {
	planner ports.ItineraryPlanner
	reader  ports.ItineraryReader
	queue   ports.RefreshQueue
}

func NewServer(planner ports.ItineraryPlanner, reader ports.ItineraryReader, queue ports.RefreshQueue) *Server {
	return &Server{planner: planner, reader: reader, queue: queue}
}

func (s *Server) Build() *server.MCPServer {
	srv := server.NewMCPServer(
		"TripForge Itinerary Planner",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	planTool := mcp.NewTool("plan_itinerary",
		mcp.WithDescription("Generate a day-by-day travel itinerary for a destination and date range"),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("City or region to plan for, e.g. Tokyo"),
		),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Trip start date in YYYY-MM-DD format"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("Trip end date in YYYY-MM-DD format"),
		),
		mcp.WithNumber("adults",
			mcp.Description("Number of adult travelers"),
			mcp.DefaultNumber(1),
			mcp.Min(1),
		),
		mcp.WithNumber("children",
			mcp.Description("Number of child travelers"),
			mcp.DefaultNumber(0),
		),
		mcp.WithString("interests",
			mcp.Description("Comma separated interests, e.g. food,temples,hiking"),
		),
		mcp.WithString("budget",
			mcp.Description("Budget preference: budget, moderate or luxury"),
		),
	)
	srv.AddTool(planTool, s.handlePlan)

	getTool := mcp.NewTool("get_itinerary",
		mcp.WithDescription("Fetch a stored itinerary by id together with its freshness assessment"),
		mcp.WithString("itinerary_id",
			mcp.Required(),
			mcp.Description("Identifier returned by plan_itinerary"),
		),
	)
	srv.AddTool(getTool, s.handleGet)

	refreshTool := mcp.NewTool("refresh_itinerary",
		mcp.WithDescription("Schedule a background regeneration of a stored itinerary"),
		mcp.WithString("itinerary_id",
			mcp.Required(),
			mcp.Description("Identifier of the itinerary to refresh"),
		),
	)
	srv.AddTool(refreshTool, s.handleRefresh)

	return srv
}

func (s *Server) handlePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	destination, err := request.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid destination: %v", err)), nil
	}
	startDate, err := request.RequireString("start_date")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid start_date: %v", err)), nil
	}
	endDate, err := request.RequireString("end_date")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid end_date: %v", err)), nil
	}

	req := domain.PlanRequest{
		Destination: destination,
		StartDate:   startDate,
		EndDate:     endDate,
		Travelers: domain.Travelers{
			Adults:   int(request.GetFloat("adults", 1)),
			Children: int(request.GetFloat("children", 0)),
		},
		Budget: request.GetString("budget", ""),
	}
	if interests := request.GetString("interests", ""); interests != "" {
		for _, interest := range strings.Split(interests, ",") {
			if trimmed := strings.TrimSpace(interest); trimmed != "" {
				req.Interests = append(req.Interests, trimmed)
			}
		}
	}

	outcome, err := s.planner.Plan(ctx, mcpClientID, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("planning failed: %v", err)), nil
	}
	return jsonResult(outcome)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("itinerary_id")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid itinerary_id: %v", err)), nil
	}

	itinerary, freshness, err := s.reader.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"itinerary": itinerary,
		"freshness": freshness,
	})
}

func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("itinerary_id")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid itinerary_id: %v", err)), nil
	}

	if _, _, err := s.reader.Get(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if err := s.queue.PublishRefreshRequested(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("refresh scheduling failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("refresh scheduled for itinerary %s", id)), nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(encoded)), nil
}
