package tui

import (
	"fmt"
	"strings"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
	)
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// TransitionReport formats a completed transition as markdown, suitable
// for the glamour renderer or plain output.
func TransitionReport(res *domain.TransitionResult, price float64) string {
	var b strings.Builder

	if res.Success {
		fmt.Fprintf(&b, "# Arrived at %s\n\n", res.Request.DestinationID)
	} else {
		fmt.Fprintf(&b, "# Travel to %s failed\n\n", res.Request.DestinationID)
		if res.Reason != "" {
			fmt.Fprintf(&b, "> %s\n\n", res.Reason)
		}
	}

	fmt.Fprintf(&b, "- **Final position:** %s\n", res.FinalPosition.String())
	if res.Target != nil {
		fmt.Fprintf(&b, "- **Target strategy:** %s", res.Target.Strategy)
		if res.Target.AnchorName != "" {
			fmt.Fprintf(&b, " (`%s`)", res.Target.AnchorName)
		}
		b.WriteString("\n")
	}
	if res.Placement != nil {
		fmt.Fprintf(&b, "- **Grounding:** %s, raised %.2f\n", res.Placement.Strategy, res.Placement.Raised)
	}
	fmt.Fprintf(&b, "- **Attempts:** %d\n", len(res.Attempts))
	if res.UsedShim {
		b.WriteString("- **Fallback:** compatibility placement\n")
	}
	if res.Variant != "" {
		fmt.Fprintf(&b, "- **Variant:** %s\n", res.Variant)
	}
	if res.Success && price > 0 {
		fmt.Fprintf(&b, "- **Fare:** %.0f\n", price)
	}
	fmt.Fprintf(&b, "- **Duration:** %s\n", res.Duration)

	if len(res.Attempts) > 0 {
		b.WriteString("\n## Attempts\n\n")
		b.WriteString("| # | applied | settled | error | outcome |\n")
		b.WriteString("|---|---------|---------|-------|--------|\n")
		for _, a := range res.Attempts {
			outcome := "failed"
			if a.Succeeded && !a.Overridden {
				outcome = "ok"
			} else if a.Overridden {
				outcome = "overridden"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %.2f | %s |\n",
				a.Number, a.Applied.String(), a.Settled.String(), a.DistanceError, outcome)
		}
	}
	return b.String()
}
