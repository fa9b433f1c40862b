package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"swarm/internal/config"
	"swarm/internal/coord"
)

// sessionCmd walks two agents through a coordination session: claiming
// files, publishing discoveries, and rendezvousing on an interface
// contract.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Walk through a two-agent coordination session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger := newLogger("session", cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		hub := coord.NewHub()
		store := coord.NewStore(coord.SessionConfig{
			ProjectName: "checkout-demo",
			PathLayout: coord.PathLayout{
				coord.KindComponent: "src/components",
				coord.KindHook:      "src/hooks",
			},
		}, hub, logger)

		go printEvents(ctx, hub)

		store.Start()
		fmt.Println(bold("build " + store.BuildID()))

		if _, err := store.RegisterAgent("agent-ui", "frontend"); err != nil {
			return err
		}
		if _, err := store.RegisterAgent("agent-data", "state"); err != nil {
			return err
		}

		// The UI agent waits for the cart store interface before writing
		// the component that consumes it.
		waitDone := make(chan error, 1)
		go func() {
			contract, err := store.WaitForContract(ctx, "CartStore", "agent-ui", 5*time.Second)
			if err != nil {
				waitDone <- err
				return
			}
			if contract == nil {
				waitDone <- fmt.Errorf("CartStore never became ready")
				return
			}
			fmt.Println(green("agent-ui received contract " + contract.InterfaceName + " from " + contract.FilePath))
			waitDone <- nil
		}()

		if _, err := store.RegisterContract(coord.InterfaceContract{
			ProviderAgent: "agent-data",
			InterfaceName: "CartStore",
			FilePath:      "src/stores/cart.ts",
			Signature:     "useCartStore(): {items, add, remove, total}",
		}); err != nil {
			return err
		}

		claimed, err := store.ClaimFile("src/stores/cart.ts", "agent-data")
		if err != nil {
			return err
		}
		if !claimed {
			return fmt.Errorf("claim on src/stores/cart.ts unexpectedly contended")
		}
		// A second claim on the same path loses without erroring.
		if again, _ := store.ClaimFile("src/stores/cart.ts", "agent-ui"); again {
			return fmt.Errorf("exclusive claim was not exclusive")
		}

		if _, err := store.UpdateFileStatus("src/stores/cart.ts", "agent-data", coord.OwnershipWriting, ""); err != nil {
			return err
		}
		if _, err := store.UpdateFileStatus("src/stores/cart.ts", "agent-data", coord.OwnershipCompleted,
			"export const useCartStore = () => ({ items: [], add, remove, total })"); err != nil {
			return err
		}

		// Announcing the store artifact resolves the planned contract and
		// releases the waiting UI agent.
		if _, err := store.AnnounceDiscovery(coord.DiscoveryEntry{
			Kind:     coord.KindStore,
			Name:     "cart store",
			FilePath: "src/stores/cart.ts",
			Exports:  []string{"CartStore", "useCartStore"},
			Agent:    "agent-data",
		}); err != nil {
			return err
		}

		if err := <-waitDone; err != nil {
			return err
		}

		if _, err := store.ReleaseFile("src/stores/cart.ts", "agent-data"); err != nil {
			return err
		}

		for _, suggestion := range store.ImportSuggestions([]string{"useCartStore"}) {
			fmt.Println(gray(fmt.Sprintf("import %s from %s", suggestion.Export, suggestion.FilePath)))
		}

		store.Complete()
		time.Sleep(50 * time.Millisecond) // let the event printer drain
		fmt.Println(green("session " + string(store.Status())))

		summary := struct {
			Build       string                 `yaml:"build"`
			Project     string                 `yaml:"project"`
			Agents      []coord.AgentRecord    `yaml:"agents"`
			Discoveries []coord.DiscoveryEntry `yaml:"discoveries"`
		}{
			Build:       store.BuildID(),
			Project:     store.ProjectName(),
			Agents:      store.Agents(),
			Discoveries: store.Discoveries(),
		}
		encoded, err := yaml.Marshal(summary)
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	},
}

func printEvents(ctx context.Context, hub *coord.Hub) {
	files := hub.SubscribeFiles(ctx)
	discoveries := hub.SubscribeDiscoveries(ctx)
	contracts := hub.SubscribeContracts(ctx)
	sessions := hub.SubscribeSessions(ctx)

	for {
		select {
		case ev, ok := <-files:
			if !ok {
				return
			}
			fmt.Println(gray(fmt.Sprintf("[file] %s %s by %s", ev.Kind, ev.Path, ev.Agent)))
		case ev, ok := <-discoveries:
			if !ok {
				return
			}
			fmt.Println(gray(fmt.Sprintf("[discovery] %s %s", ev.Kind, ev.Entry.Name)))
		case ev, ok := <-contracts:
			if !ok {
				return
			}
			fmt.Println(gray(fmt.Sprintf("[contract] %s %s", ev.Kind, ev.Contract.InterfaceName)))
		case ev, ok := <-sessions:
			if !ok {
				return
			}
			fmt.Println(gray(fmt.Sprintf("[session] %s -> %s", ev.Kind, ev.Status)))
		case <-ctx.Done():
			return
		}
	}
}
