package main

import (
	"context"
	"fmt"
	"os"

	"github.com/averycross/waygate"
	"github.com/averycross/waygate/internal/presentation/tui"
	"github.com/averycross/waygate/pkg/adapters/memory"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// defaultScenario is the built-in demo world: a small plaza, a harbor
// context with a dock anchor, and a ruin that only resolves heuristically.
const defaultScenario = `
geometry:
  - name: plaza
    min: {x: -20, y: -1, z: -20}
    max: {x: 20, y: 0, z: 20}
    walkable: true
subject:
  tag: Player
  name: Traveler
  position: {x: 0, y: 1, z: 0}
  has_controller: true
contexts:
  - id: harbor
    load_duration: 1s
    anchors:
      Dock: {x: 5, y: 1, z: -3}
    roots:
      - name: Lighthouse
        position: {x: 12, y: 1, z: 9}
  - id: ruin
    load_duration: 2s
    roots:
      - name: HUDCanvas
        position: {x: 0, y: 0, z: 0}
      - name: PlayerSpawnPoint
        position: {x: 10, y: 1, z: 5}
prices:
  harbor: 25
  ruin: 40
`

var runCmd = &cobra.Command{
	Use:   "run [destination]",
	Short: "Run one transition in a simulated world",
	Long: `Builds the in-memory world from a scenario file (or the built-in demo),
runs a full transition pipeline to the given destination and prints a report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, tun, logger, err := loadSetup(cmd)
		if err != nil {
			return err
		}

		scenarioPath, _ := cmd.Flags().GetString("scenario")
		data := []byte(defaultScenario)
		if scenarioPath != "" {
			if data, err = os.ReadFile(scenarioPath); err != nil {
				return err
			}
		}

		world, loader, sc, err := memory.ParseScenario(data)
		if err != nil {
			return err
		}

		destination := ""
		if len(args) > 0 {
			destination = args[0]
		} else if ids := loader.Contexts(); len(ids) > 0 {
			destination = ids[0]
		}
		anchor, _ := cmd.Flags().GetString("anchor")

		recorder := memory.NewRecorder(memory.WithClock(world))
		eng, err := waygate.New(world, loader,
			waygate.WithLogger(logger),
			waygate.WithTunables(tun),
			waygate.WithVisitRecorder(recorder),
			waygate.WithNotifier(ports.NotifierFunc(func(msg string) {
				fmt.Fprintln(os.Stderr, msg)
			})),
		)
		if err != nil {
			return err
		}

		// Pricing is the caller's business, not the engine's: quote
		// first, carry the quote through as an opaque hint.
		price, _ := memory.PriceList(sc.Prices).Price(cmd.Context(), destination)

		interactive := term.IsTerminal(int(os.Stdout.Fd()))
		if interactive {
			tui.PrintBanner()
		}

		accepted, err := eng.Begin(context.Background(), domain.TransitionRequest{
			DestinationID: destination,
			AnchorHint:    anchor,
			CostHint:      price,
		})
		if err != nil {
			return err
		}
		if !accepted {
			return fmt.Errorf("transition was not accepted")
		}

		res := <-eng.Finished()
		report := tui.TransitionReport(&res, price)
		if interactive {
			if rendered, err := tui.NewRenderer()(report); err == nil {
				report = rendered
			}
		}
		fmt.Println(report)

		if !res.Success {
			return fmt.Errorf("transition failed: %s", res.Reason)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("scenario", "", "Path to a scenario YAML describing the simulated world")
	runCmd.Flags().String("anchor", "", "Arrival anchor name inside the destination")
}
