package service

import (
	"github.com/loda-lang/loda-mcp/internal/services/mcp/domain"
)

func registerSequenceTools(s *Server) error {
	if err := registerTool(s, domain.GetSequenceTool(), domain.GetSequenceHandler(s.api)); err != nil {
		return err
	}
	return registerTool(s, domain.SearchSequencesTool(), domain.SearchSequencesHandler(s.api))
}

func registerProgramTools(s *Server) error {
	if err := registerTool(s, domain.GetProgramTool(), domain.GetProgramHandler(s.api)); err != nil {
		return err
	}
	if err := registerTool(s, domain.EvalProgramTool(), domain.EvalProgramHandler(s.api)); err != nil {
		return err
	}
	if err := registerTool(s, domain.ExportProgramTool(), domain.ExportProgramHandler(s.api)); err != nil {
		return err
	}
	return registerTool(s, domain.SubmitProgramTool(), domain.SubmitProgramHandler(s.api))
}

func registerStatsTools(s *Server) error {
	return registerTool(s, domain.GetStatsTool(), domain.GetStatsHandler(s.api))
}

func registerSequenceResources(s *Server) error {
	s.mcpServer.AddResourceTemplate(domain.SequenceResourceTemplate(), domain.SequenceResourceHandler(s.api))
	return nil
}

func registerStatsResources(s *Server) error {
	s.mcpServer.AddResource(domain.StatsResource(), domain.StatsResourceHandler(s.api))
	return nil
}
