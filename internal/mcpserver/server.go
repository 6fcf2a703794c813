// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lectio tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lectio/internal/courseservice"
)

// Server wraps the MCP server with Lectio tools.
type Server struct {
	mcp *server.MCPServer
	svc *courseservice.Service
}

// New creates a new MCP server with all Lectio tools registered.
func New(svc *courseservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Lectio",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_courses",
		mcp.WithDescription("List the courses in the library with their summary counts."),
	), s.listCourses)

	s.mcp.AddTool(mcp.NewTool("course_history",
		mcp.WithDescription("Get the chronological learning history of a course: week, title, author, thesis and key concepts per prior reading."),
		mcp.WithString("course", mcp.Required(), mcp.Description("Course code (e.g. PSYCH101)")),
	), s.courseHistory)

	s.mcp.AddTool(mcp.NewTool("read_summary",
		mcp.WithDescription("Read the full content of a stored summary. "+
			"Summaries follow the format described by the lectio://summary-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Library-relative path to the summary (e.g. PSYCH101/Week 1/reading_summary.md)")),
	), s.readSummary)

	s.mcp.AddTool(mcp.NewTool("list_summaries",
		mcp.WithDescription("List summary artifacts, optionally under one folder."),
		mcp.WithString("folder", mcp.Description("Optional library-relative folder (empty for all)")),
	), s.listSummaries)

	s.mcp.AddTool(mcp.NewTool("index_stats",
		mcp.WithDescription("Aggregate statistics from the global master index: total courses, total readings, last update."),
	), s.indexStats)

	// Resource: summary format contract.
	s.mcp.AddResource(
		mcp.NewResource("lectio://summary-format", "Summary Format Contract",
			mcp.WithResourceDescription("Canonical summary artifact format produced and indexed by Lectio."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSummaryFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listCourses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	courses, err := s.svc.ListCourses(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(courses) == 0 {
		return mcp.NewToolResultText("no courses found"), nil
	}
	out, _ := json.MarshalIndent(courses, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) courseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("course")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.svc.CourseHistory(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("course not found: %s", code)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("no summaries recorded for this course yet"), nil
	}
	out, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetSummary(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) listSummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.svc.ListSummaries(ctx, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("no summaries found"), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) indexStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSummaryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "lectio://summary-format",
			MIMEType: "text/markdown",
			Text:     SummaryFormatContract,
		},
	}, nil
}
