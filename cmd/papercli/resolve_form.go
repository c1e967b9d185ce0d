package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	syncengine "github.com/SXKDZ/papercli/internal/sync"
	"github.com/SXKDZ/papercli/internal/types"
)

// interactiveResolver walks the user through each conflict with a select
// form. Aborting the form (esc/ctrl-c) cancels the whole sync before any
// propagation happens.
func interactiveResolver() syncengine.Resolver {
	return syncengine.ResolverFunc(func(conflicts []*types.Conflict) map[string]types.Decision {
		decisions := make(map[string]types.Decision, len(conflicts))

		for i, c := range conflicts {
			choice := string(types.DecisionLocal)
			form := huh.NewForm(huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Conflict %d/%d: %s '%s'", i+1, len(conflicts), c.Kind, c.ItemID)).
					Description(describeDifferences(c)).
					Options(
						huh.NewOption("Keep local version", string(types.DecisionLocal)),
						huh.NewOption("Use remote version", string(types.DecisionRemote)),
						huh.NewOption("Keep both versions", string(types.DecisionKeepBoth)),
					).
					Value(&choice),
			))
			if err := form.Run(); err != nil {
				return nil
			}
			decisions[c.Key()] = types.Decision(choice)
		}
		return decisions
	})
}

func describeDifferences(c *types.Conflict) string {
	var lines []string
	for _, field := range c.DiffFields() {
		d := c.Differences[field]
		lines = append(lines, fmt.Sprintf("%s: %q vs %q", field, truncate(d.Local, 60), truncate(d.Remote, 60)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
