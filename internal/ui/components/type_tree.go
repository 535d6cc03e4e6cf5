package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/xlab/treeprint"

	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/ui/styles"
)

// treeGroups orders page types under the branches of the type tree.
var treeGroups = []struct {
	name  string
	types []models.PageType
}{
	{"B-tree", []models.PageType{
		models.PageTypeTableInterior,
		models.PageTypeTableLeaf,
		models.PageTypeIndexInterior,
		models.PageTypeIndexLeaf,
	}},
	{"Freelist", []models.PageType{
		models.PageTypeFreelistTrunk,
		models.PageTypeFreelistLeaf,
	}},
	{"Other", []models.PageType{
		models.PageTypePayloadOverflow,
		models.PageTypePointerMap,
		models.PageTypeLockByte,
		models.PageTypeUnknown,
	}},
}

// RenderTypeTree renders page counts grouped by kind as an ASCII tree.
// Returns an empty string if the snapshot has no pages.
func RenderTypeTree(info *models.DatabaseInfo) string {
	if info == nil || info.PageCount() == 0 {
		return ""
	}

	counts := info.TypeCounts()
	total := info.PageCount()

	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%d pages", total))

	for _, group := range treeGroups {
		groupTotal := 0
		for _, t := range group.types {
			groupTotal += counts[t]
		}
		if groupTotal == 0 {
			continue
		}

		branch := tree.AddBranch(fmt.Sprintf("%s (%d)", group.name, groupTotal))
		for _, t := range group.types {
			n := counts[t]
			if n == 0 {
				continue
			}
			style := lipgloss.NewStyle().Foreground(styles.PageTypeColor(t))
			branch.AddNode(style.Render(fmt.Sprintf("%s: %d (%.1f%%)", t, n, float64(n)/float64(total)*100)))
		}
	}

	return lipgloss.NewStyle().Foreground(styles.ColorMuted).Render(tree.String())
}

// PageTypeBars returns one bar per page type present in info, largest first.
func PageTypeBars(info *models.DatabaseInfo) []BarChartItem {
	if info == nil {
		return nil
	}
	counts := info.TypeCounts()

	var items []BarChartItem
	for _, group := range treeGroups {
		for _, t := range group.types {
			if n := counts[t]; n > 0 {
				items = append(items, BarChartItem{
					Label: t.String(),
					Value: float64(n),
					Color: styles.PageTypeColor(t),
				})
			}
		}
	}
	// stable insertion sort keeps group order among equal counts
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Value > items[j-1].Value; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	return items
}
