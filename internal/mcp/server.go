package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(t Tracker, version string, log *slog.Logger) *server.MCPServer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := server.NewMCPServer("CirquloFit", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("CirquloFit workout tracker. Start and stop the guided workout, mark sets done, adjust weight and reps, run the rest timer, and read progression stats and history. There is one active session at a time."),
	)

	h := &handlers{t: t, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkoutState, Handler: h.getWorkoutState},
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolStopWorkout, Handler: h.stopWorkout},
		server.ServerTool{Tool: toolCompleteSet, Handler: h.completeSet},
		server.ServerTool{Tool: toolUpdateSet, Handler: h.updateSet},
		server.ServerTool{Tool: toolStartTimer, Handler: h.startTimer},
		server.ServerTool{Tool: toolStopTimer, Handler: h.stopTimer},
		server.ServerTool{Tool: toolCompleteWorkout, Handler: h.completeWorkout},
		server.ServerTool{Tool: toolGetUserStats, Handler: h.getUserStats},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCatalog, Handler: h.catalog},
		server.ServerResource{Resource: resCurrentSession, Handler: h.currentSession},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	t   Tracker
	log *slog.Logger
}

// --- Resource definitions ---

var resCatalog = mcp.NewResource(
	"cirqulofit://catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All exercises, workout templates and level thresholds"),
	mcp.WithMIMEType("application/json"),
)

var resCurrentSession = mcp.NewResource(
	"cirqulofit://current_session",
	"Current Session",
	mcp.WithResourceDescription("The active workout session with set progress, or null when idle"),
	mcp.WithMIMEType("application/json"),
)
