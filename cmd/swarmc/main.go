// swarmc demonstrates the swarm pipeline from the command line: model
// routing, strategy execution against a scripted backend, and a
// coordination session walkthrough.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swarm/internal/config"
	swarmerrors "swarm/internal/errors"
	"swarm/internal/execution"
	"swarm/internal/generation"
	"swarm/internal/llm"
	"swarm/internal/logging"
	"swarm/internal/routing"
)

var (
	cfgFile string
	verbose bool
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "swarmc",
	Short: "Coordination store and adaptive model routing for agent swarms",
	Long: `swarmc exercises the swarm module end to end: classify a prompt and
inspect the routing decision, run a generation strategy against a scripted
backend, or walk through a multi-agent coordination session.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error: ")+err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default swarm.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(modelsCmd, routeCmd, generateCmd, sessionCmd)
}

func newLogger(component string, cfg *config.Config) logging.Logger {
	logger := logging.New(component)
	switch {
	case verbose:
		logger.SetLevel(logging.DEBUG)
	case cfg != nil && cfg.LogLevel == "debug":
		logger.SetLevel(logging.DEBUG)
	case cfg != nil && cfg.LogLevel == "warn":
		logger.SetLevel(logging.WARN)
	case cfg != nil && cfg.LogLevel == "error":
		logger.SetLevel(logging.ERROR)
	}
	return logger
}

// demoModels back the CLI when the config file lists none.
func demoModels() []routing.ModelProfile {
	return []routing.ModelProfile{
		{ID: "swift-mini", Provider: "demo", Tier: routing.TierSmall, CostPer1KInput: 0.1, CostPer1KOutput: 0.3, AvgLatencyMs: 250},
		{ID: "steady-pro", Provider: "demo", Tier: routing.TierDefault, CostPer1KInput: 1, CostPer1KOutput: 3, AvgLatencyMs: 900},
		{ID: "apex-ultra", Provider: "demo", Tier: routing.TierStrong, CostPer1KInput: 5, CostPer1KOutput: 15, AvgLatencyMs: 2500},
	}
}

// buildFacade assembles the full pipeline over a scripted backend. Real
// provider clients plug in through the same llm.Client seam.
func buildFacade(cfg *config.Config) *generation.Facade {
	logger := newLogger("swarmc", cfg)
	tracker := swarmerrors.NewHealthTracker(cfg.HealthConfig(), logger)

	models := cfg.Models
	if len(models) == 0 {
		models = demoModels()
	}
	router := routing.NewRouter(models, tracker, logger)

	backend := llm.NewMockClient()
	engine := execution.NewEngine(backend,
		execution.WithLogger(logger),
		execution.WithHealthTracker(tracker),
	)
	return generation.NewFacade(routing.NewClassifier(), router, engine, logger,
		generation.WithBudgets(cfg.PresetBudgets()))
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the configured model profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		models := cfg.Models
		if len(models) == 0 {
			fmt.Println(gray("no models configured; showing demo profiles"))
			models = demoModels()
		}
		for _, m := range models {
			fmt.Printf("%s  %-10s %-8s in=$%.2f/1k out=$%.2f/1k ~%.0fms\n",
				bold(fmt.Sprintf("%-12s", m.ID)), m.Provider, m.Tier,
				m.CostPer1KInput, m.CostPer1KOutput, m.AvgLatencyMs)
		}
		return nil
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <prompt>",
	Short: "Classify a prompt and show the routing decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		facade := buildFacade(cfg)

		preset, _ := cmd.Flags().GetString("preset")
		analysis, decision := facade.Decide(generation.Request{
			Prompt: args[0],
			Preset: generation.Preset(preset),
		})

		fmt.Printf("%s %s/%s tokens=%d design_heavy=%t critical=%t\n",
			bold("analysis:"), analysis.Type, analysis.Complexity,
			analysis.Tokens, analysis.DesignHeavy, analysis.Critical)
		fmt.Printf("%s %s primary=%s", bold("decision:"), cyan(string(decision.Strategy)), decision.PrimaryModel)
		if decision.ParallelModel != "" {
			fmt.Printf(" parallel=%s", decision.ParallelModel)
		}
		if decision.FallbackModel != "" {
			fmt.Printf(" fallback=%s", decision.FallbackModel)
		}
		fmt.Println()
		fmt.Println(gray(decision.Reasoning))
		return nil
	},
}

func init() {
	routeCmd.Flags().String("preset", "", "pin the routing verdict (critical_decision, feature_build, quick_check)")
	generateCmd.Flags().String("preset", "", "pin the routing verdict (critical_decision, feature_build, quick_check)")
	generateCmd.Flags().Bool("oneshot", false, "collect the full text instead of streaming chunks")
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Run a generation strategy against the scripted demo backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		facade := buildFacade(cfg)

		preset, _ := cmd.Flags().GetString("preset")
		if preset != "" && !generation.Preset(preset).Known() {
			return fmt.Errorf("unknown preset %q", preset)
		}
		req := generation.Request{Prompt: args[0], Preset: generation.Preset(preset)}

		if oneshot, _ := cmd.Flags().GetBool("oneshot"); oneshot {
			result, err := facade.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Println(result.Content)
			fmt.Println(gray(fmt.Sprintf("model=%s strategy=%s tokens=%d latency=%dms enhanced=%t",
				result.Model, result.Strategy, result.Usage.TotalTokens, result.LatencyMs, result.WasEnhanced)))
			return nil
		}

		for chunk := range facade.GenerateStream(cmd.Context(), req) {
			switch chunk.Type {
			case execution.ChunkStatus:
				fmt.Println(cyan("» " + chunk.Content))
			case execution.ChunkText:
				fmt.Print(chunk.Content)
			case execution.ChunkEnhancementStart:
				fmt.Println()
				fmt.Println(yellow("» " + chunk.Content))
			case execution.ChunkError:
				fmt.Println()
				return fmt.Errorf("%s: %s", chunk.Model, chunk.Content)
			case execution.ChunkDone:
				fmt.Println()
				fmt.Println(green(fmt.Sprintf("done model=%s tokens=%d latency=%dms",
					chunk.Model, chunk.Meta.Usage.TotalTokens, chunk.Meta.LatencyMs)))
			}
		}
		return nil
	},
}
