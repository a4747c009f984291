package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/cirqulofit/internal/catalog"
	"github.com/claude/cirqulofit/internal/models"
)

// templates returns each distinct level template once, in level order.
func templates() []models.Workout {
	seen := make(map[string]bool)
	var out []models.Workout
	for _, l := range catalog.Levels() {
		w := catalog.TemplateForLevel(l.Number)
		if seen[w.ID] {
			continue
		}
		seen[w.ID] = true
		out = append(out, w)
	}
	return out
}

func (h *handlers) catalog(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(map[string]any{
		"exercises": catalog.Exercises(),
		"workouts":  templates(),
		"levels":    catalog.Levels(),
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) currentSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.t.State(ctx)
	if err != nil {
		return nil, err
	}

	var body any
	if st.CurrentSession != nil {
		body = map[string]any{
			"session":  st.CurrentSession,
			"progress": st.CurrentSession.Progress(),
			"timer":    st.Timer,
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
