package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veridex-ai/veridex/internal/config"
	"github.com/veridex-ai/veridex/internal/repository"
	"github.com/veridex-ai/veridex/internal/service"
)

func TrustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Manage trust scores",
		Long:  "Recompute and inspect agent trust scores",
	}

	cmd.AddCommand(TrustRecomputeCmd())

	return cmd
}

func TrustRecomputeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recompute [agent-id]",
		Short: "Recompute agent trust scores",
		Long:  "Recompute the trust score of one agent, or of all agents when no ID is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrustRecompute,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runTrustRecompute(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	insightRepo := repository.NewInsightRepository(pool)
	validationRepo := repository.NewValidationRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)

	trustSvc := service.NewTrustServiceWithConfig(insightRepo, validationRepo, agentRepo, service.TrustConfig{
		ExemptAgents: cfg.TrustExemptAgents,
	})

	var targets []string
	if len(args) == 1 {
		targets = []string{args[0]}
	} else {
		agents, err := agentRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list agents: %w", err)
		}
		for _, agent := range agents {
			targets = append(targets, agent.ID)
		}
	}

	type recomputeResult struct {
		AgentID    string  `json:"agent_id"`
		TrustScore float64 `json:"trust_score"`
	}

	results := make([]recomputeResult, 0, len(targets))
	for _, agentID := range targets {
		score, err := trustSvc.UpdateAgentTrust(ctx, agentID)
		if err != nil {
			return fmt.Errorf("failed to recompute trust for agent %s: %w", agentID, err)
		}
		results = append(results, recomputeResult{AgentID: agentID, TrustScore: score})
	}

	if outputFormat == "json" {
		jsonBytes, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(results) == 0 {
			fmt.Println("No agents to recompute")
			return nil
		}
		for _, res := range results {
			fmt.Printf("  %s: trust %.2f\n", res.AgentID, res.TrustScore)
		}
	}

	return nil
}
