// Package setup holds the interactive terminal front end for the coin list.
package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/cointrack/internal/domain"
	"github.com/vadiminshakov/cointrack/internal/services/coinlist"
	"github.com/vadiminshakov/cointrack/internal/services/icons"
)

const (
	actionQuit   = "__quit"
	actionReload = "__reload"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	danger    = lipgloss.AdaptiveColor{Light: "#D9534F", Dark: "#F57373"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	symbolStyle = lipgloss.NewStyle().Bold(true).Width(8)
	onStyle     = lipgloss.NewStyle().Foreground(special).Bold(true)
	offStyle    = lipgloss.NewStyle().Foreground(subtle)
	errorStyle  = lipgloss.NewStyle().Foreground(danger)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

type coinSynchronizer interface {
	Initialize(ctx context.Context) domain.LoadResult
	Toggle(ctx context.Context, symbol string, enabled bool) error
	Snapshot() coinlist.Snapshot
}

// RenderList draws one row per coin for the given snapshot.
func RenderList(snap coinlist.Snapshot) string {
	switch {
	case snap.Status == domain.LoadStatusFailed:
		return errorStyle.Render(fmt.Sprintf("could not load coins: %v", snap.Err))
	case snap.Status == domain.LoadStatusLoading:
		return offStyle.Render("loading...")
	case len(snap.Coins) == 0:
		return offStyle.Render("no coins")
	}

	rows := make([]string, 0, len(snap.Coins))
	for _, c := range snap.Coins {
		rows = append(rows, renderRow(c))
	}
	return boxStyle.Render(strings.Join(rows, "\n"))
}

func renderRow(c domain.Coin) string {
	status := offStyle.Render("off")
	if c.Enabled {
		status = onStyle.Render("on")
	}
	icon := offStyle.Render(strings.TrimPrefix(icons.Resolve(c.Symbol), icons.PathPrefix))
	return lipgloss.JoinHorizontal(lipgloss.Top, symbolStyle.Render(c.Symbol), status, "  ", icon)
}

// RunTUI loads the coin list and lets the user flip coins until they quit.
func RunTUI(ctx context.Context, coins coinSynchronizer) error {
	coins.Initialize(ctx)

	var notice string
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		snap := coins.Snapshot()

		fmt.Print("\033[H\033[2J") // clear screen
		fmt.Println(headerStyle.Render("COINTRACK"))
		fmt.Println(RenderList(snap))
		if notice != "" {
			fmt.Println(notice)
			notice = ""
		}

		var choice string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Flip a coin").
					Options(menuOptions(snap)...).
					Value(&choice),
			),
		).Run()
		if err != nil {
			return err
		}

		switch choice {
		case actionQuit:
			return nil
		case actionReload:
			coins.Initialize(ctx)
		default:
			idx := domain.IndexOf(snap.Coins, choice)
			if idx < 0 {
				continue
			}
			want := !snap.Coins[idx].Enabled
			if err := coins.Toggle(ctx, choice, want); err != nil {
				notice = errorStyle.Render(fmt.Sprintf("%s was not changed: %v", choice, err))
			}
		}
	}
}

func menuOptions(snap coinlist.Snapshot) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(snap.Coins)+2)
	for _, c := range snap.Coins {
		label := c.Symbol + " (off -> on)"
		if c.Enabled {
			label = c.Symbol + " (on -> off)"
		}
		opts = append(opts, huh.NewOption(label, c.Symbol))
	}
	opts = append(opts,
		huh.NewOption("Reload list", actionReload),
		huh.NewOption("Quit", actionQuit),
	)
	return opts
}
