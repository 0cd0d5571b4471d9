package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/veridex-ai/veridex/internal/config"
	"github.com/veridex-ai/veridex/internal/database"
	"github.com/veridex-ai/veridex/internal/repository"
	"github.com/veridex-ai/veridex/internal/service"
)

func AgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
		Long:  "Create and list registered agents",
	}

	cmd.AddCommand(AgentCreateCmd())
	cmd.AddCommand(AgentListCmd())

	return cmd
}

func AgentCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <display-name>",
		Short: "Register a new agent",
		Long:  "Register a new agent with the specified display name",
		Args:  cobra.ExactArgs(1),
		RunE:  runAgentCreate,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAgentCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	displayName := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	agentRepo := repository.NewAgentRepository(pool)
	agentSvc := service.NewAgentService(agentRepo)

	agent, err := agentSvc.Create(ctx, displayName)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":           agent.ID,
			"display_name": agent.DisplayName,
			"trust_score":  agent.TrustScore,
			"created_at":   agent.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Agent created: %s (%s)\n", agent.DisplayName, agent.ID)
	}

	return nil
}

func AgentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all agents",
		Long:  "List all registered agents with their trust scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAgentList(outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAgentList(outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	agentRepo := repository.NewAgentRepository(pool)

	agents, err := agentRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(agents))
		for i, agent := range agents {
			data[i] = map[string]interface{}{
				"id":           agent.ID,
				"display_name": agent.DisplayName,
				"trust_score":  agent.TrustScore,
				"created_at":   agent.CreatedAt,
			}
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(agents) == 0 {
			fmt.Println("No agents found")
			return nil
		}
		fmt.Println("Agents:")
		for _, agent := range agents {
			fmt.Printf("  %s: %s (trust: %.2f, created: %s)\n",
				agent.ID, agent.DisplayName, agent.TrustScore, agent.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return database.Connect(ctx, cfg.DatabaseURL)
}
