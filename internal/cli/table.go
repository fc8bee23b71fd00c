package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/matzehuels/splitdelegation/pkg/amount"
	"github.com/matzehuels/splitdelegation/pkg/stats"
)

// headerRow is the row index lipgloss tables pass for the header.
const headerRow = -1

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func humanizeBig(v big.Int) string {
	return humanize.BigComma(v.Int)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// powerTable lists addresses by descending voting power with their share
// of the total.
func powerTable(vp amount.Scores) string {
	total := vp.Sum()
	rows := make([][]string, 0, len(vp))
	for i, addr := range sortedByPower(vp) {
		v := vp[addr]
		share := int64(0)
		if !total.IsZero() {
			share = big.Div(big.Mul(v, big.NewInt(10000)), total).Int64()
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), addr, formatPower(v), formatBasisPoints(share)})
	}
	return newTable("#", "Address", "Voting power", "Share").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorTeal)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// statsRows formats ranked stats; rank numbering starts after offset.
func statsRows(ranked []stats.Stat, offset int) [][]string {
	rows := make([][]string, len(ranked))
	for i, s := range ranked {
		rows[i] = []string{
			fmt.Sprint(offset + i + 1),
			s.Address,
			formatPower(s.VotingPower),
			formatBasisPoints(s.PercentOfVotingPower),
			humanize.Comma(int64(s.DelegatorCount)),
			formatBasisPoints(s.PercentOfDelegators),
		}
	}
	return rows
}

var statsHeaders = []string{"#", "Delegate", "Voting power", "% power", "Delegators", "% delegators"}

func statsTable(ranked []stats.Stat, offset int) string {
	return newTable(statsHeaders...).
		Rows(statsRows(ranked, offset)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
