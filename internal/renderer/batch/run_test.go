package batch

import (
	"testing"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

func group(cells []core.Cell, selected func(int) bool) []Run {
	b := NewBuilder(&fakeResolver{}, testMetrics)
	specs := b.Build(nil, cells, 0, 0, nil)
	return Group(nil, cells, 0, specs, selected)
}

func TestGroupSingleRun(t *testing.T) {
	runs := group(cellsOf("plain text"), nil)
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if len(runs[0].Specs) != 10 || runs[0].Col != 0 {
		t.Errorf("run = col %d, %d specs; want col 0, 10 specs", runs[0].Col, len(runs[0].Specs))
	}
}

func TestGroupBoundaries(t *testing.T) {
	cells := cellsOf("aabbcc")
	cells[2].FG = core.IndexColor(1)
	cells[3].FG = core.IndexColor(1)
	cells[4].Attr = core.AttrUnderline
	cells[5].BG = core.IndexColor(4)

	runs := group(cells, nil)

	wantCols := []int{0, 2, 4, 5}
	if len(runs) != len(wantCols) {
		t.Fatalf("len(runs) = %d, want %d", len(runs), len(wantCols))
	}
	total := 0
	for i, r := range runs {
		if r.Col != wantCols[i] {
			t.Errorf("runs[%d].Col = %d, want %d", i, r.Col, wantCols[i])
		}
		total += len(r.Specs)
	}
	if total != len(cells) {
		t.Errorf("specs across runs = %d, want %d", total, len(cells))
	}
	if runs[1].Base.FG != core.IndexColor(1) {
		t.Errorf("runs[1].Base.FG = %v, want palette 1", runs[1].Base.FG)
	}
}

func TestGroupGlyphIdentityIgnored(t *testing.T) {
	// Different characters with the same rendition share a run.
	runs := group(cellsOf("xyz"), nil)
	if len(runs) != 1 {
		t.Errorf("len(runs) = %d, want 1", len(runs))
	}
}

func TestGroupSelection(t *testing.T) {
	cells := cellsOf("abcdef")
	sel := func(x int) bool { return x >= 2 && x < 4 }

	runs := group(cells, sel)
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	if !runs[1].Base.Attr.Has(core.AttrReverse) {
		t.Error("selected run should be reversed")
	}
	if runs[0].Base.Attr.Has(core.AttrReverse) || runs[2].Base.Attr.Has(core.AttrReverse) {
		t.Error("unselected runs should not be reversed")
	}
}

func TestGroupSelectionUndoesReverse(t *testing.T) {
	cells := cellsOf("ab")
	for i := range cells {
		cells[i].Attr = core.AttrReverse
	}
	runs := group(cells, func(x int) bool { return x == 1 })

	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[1].Base.Attr.Has(core.AttrReverse) {
		t.Error("selecting a reversed cell should clear reverse")
	}
}

func TestGroupWide(t *testing.T) {
	cells := append(wide('漢'), wide('字')...)
	cells = append(cells, cellsOf("ok")...)

	runs := group(cells, nil)
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].Cells() != 4 {
		t.Errorf("wide run Cells() = %d, want 4", runs[0].Cells())
	}
	if runs[1].Col != 4 || runs[1].Cells() != 2 {
		t.Errorf("runs[1] = col %d, %d cells; want col 4, 2 cells", runs[1].Col, runs[1].Cells())
	}
}

func TestGroupOffset(t *testing.T) {
	cells := cellsOf("ab")
	cells[1].FG = core.IndexColor(2)
	b := NewBuilder(&fakeResolver{}, testMetrics)
	specs := b.Build(nil, cells, 10, 0, nil)

	var seen []int
	runs := Group(nil, cells, 10, specs, func(x int) bool {
		seen = append(seen, x)
		return false
	})
	if runs[0].Col != 10 || runs[1].Col != 11 {
		t.Errorf("cols = %d,%d want 10,11", runs[0].Col, runs[1].Col)
	}
	if len(seen) != 2 || seen[0] != 10 {
		t.Errorf("selection queried at %v, want [10 11]", seen)
	}
}

func TestGroupEmpty(t *testing.T) {
	if runs := Group(nil, cellsOf("abc"), 0, nil, nil); len(runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(runs))
	}
}
