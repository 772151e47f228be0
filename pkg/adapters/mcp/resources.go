package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// sessionViewPrefix addresses a specific session's view: ui://canopy/sessions/{id}/view.
const sessionViewPrefix = "ui://canopy/sessions/"

func (s *Server) registerResources() {
	uris := append([]string{ViewURI}, LegacyViewURIs...)
	for _, uri := range uris {
		s.mcpServer.AddResource(mcp.NewResource(uri, "Canopy view",
			mcp.WithResourceDescription("The latest dashboard of this session"),
			mcp.WithMIMEType("text/html"),
		), s.readView)
	}

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(sessionViewPrefix+"{session_id}/view", "Canopy session view",
		mcp.WithTemplateDescription("The latest dashboard of a named session"),
		mcp.WithTemplateMIMEType("text/html"),
	), s.readView)
}

func (s *Server) readView(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sid := transportSession(ctx)
	if rest, ok := strings.CutPrefix(req.Params.URI, sessionViewPrefix); ok {
		sid = strings.TrimSuffix(rest, "/view")
	}

	page, err := s.engine.View(ctx, sid)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/html",
			Text:     string(page),
		},
	}, nil
}
