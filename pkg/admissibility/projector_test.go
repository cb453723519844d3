package admissibility

import (
	"testing"

	"github.com/mindburn-labs/gtk-core/pkg/gtkstate"
)

func TestProjectGridClampsRhoHighInRowMajorOrder(t *testing.T) {
	s := gtkstate.NewGridState(2, 2, 0)
	s.Rho[0][0] = 200
	s.Rho[0][1] = 150
	s.Rho[1][0] = 50

	out, w := ProjectGrid(s, K{RhoMax: 100})

	if out.Rho[0][0] != 100 || out.Rho[0][1] != 100 {
		t.Error("rho cells above rho_max must clamp to rho_max")
	}
	if out.Rho[1][0] != 50 {
		t.Error("rho cells within bounds must be unchanged")
	}
	if len(w.RhoClampedHigh) != 2 {
		t.Fatalf("expected 2 clamped-high cells, got %d", len(w.RhoClampedHigh))
	}
	if w.RhoClampedHigh[0] != (gtkstate.Cell{I: 0, J: 0}) || w.RhoClampedHigh[1] != (gtkstate.Cell{I: 0, J: 1}) {
		t.Error("clamped cells must be listed in row-major scan order")
	}
}

func TestProjectGridClampsRhoLowAndC(t *testing.T) {
	s := gtkstate.NewGridState(1, 2, 0)
	s.Rho[0][0] = -5
	s.C[0][1] = -3

	out, w := ProjectGrid(s, K{RhoMax: 100})

	if out.Rho[0][0] != 0 {
		t.Error("negative rho must clamp to 0")
	}
	if out.C[0][1] != 0 {
		t.Error("negative C must clamp to 0")
	}
	if len(w.RhoClampedLow) != 1 || len(w.CClampedLow) != 1 {
		t.Error("expected exactly one clamped-low entry in each list")
	}
}

func TestProjectGridClampsBudget(t *testing.T) {
	s := gtkstate.NewGridState(1, 1, -10)
	out, w := ProjectGrid(s, K{RhoMax: 100})
	if out.Budget != 0 {
		t.Error("negative budget must clamp to 0")
	}
	if !w.BudgetClamped {
		t.Error("witness must record budget clamping")
	}
}

func TestProjectGridDoesNotMutateInput(t *testing.T) {
	s := gtkstate.NewGridState(1, 1, 0)
	s.Rho[0][0] = 999
	_, _ = ProjectGrid(s, K{RhoMax: 10})
	if s.Rho[0][0] != 999 {
		t.Error("ProjectGrid must not mutate its input")
	}
}

func TestProjectGridNoOpWhenInsideK(t *testing.T) {
	s := gtkstate.NewGridState(2, 2, 5)
	s.Rho[0][0] = 10
	out, w := ProjectGrid(s, K{RhoMax: 100})
	if out.Rho[0][0] != 10 {
		t.Error("in-bounds cells must be unchanged")
	}
	if !w.Empty() {
		t.Error("witness must be empty when nothing required clamping")
	}
}

func TestTauMarksOnlyClampedHighCells(t *testing.T) {
	w := gtkstate.NewWitness()
	w.RhoClampedHigh = []gtkstate.Cell{{I: 1, J: 1}}
	tau := Tau(3, 3, w)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := int64(0)
			if i == 1 && j == 1 {
				want = 1
			}
			if tau[i][j] != want {
				t.Errorf("tau[%d][%d] = %d, want %d", i, j, tau[i][j], want)
			}
		}
	}
}

func TestDiscreteLaplacianZeroFluxBoundary(t *testing.T) {
	grid := [][]int64{
		{5, 5, 5},
		{5, 5, 5},
		{5, 5, 5},
	}
	lap := DiscreteLaplacian(grid, 3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if lap[i][j] != 0 {
				t.Errorf("uniform grid must have zero Laplacian everywhere, got lap[%d][%d]=%d", i, j, lap[i][j])
			}
		}
	}
}

func TestDiscreteLaplacianInteriorSpike(t *testing.T) {
	grid := [][]int64{
		{0, 0, 0},
		{0, 4, 0},
		{0, 0, 0},
	}
	lap := DiscreteLaplacian(grid, 3, 3)
	if lap[1][1] != -16 {
		t.Errorf("center of spike: want -16, got %d", lap[1][1])
	}
	if lap[0][1] != 4 {
		t.Errorf("neighbor above spike: want 4, got %d", lap[0][1])
	}
}

func TestProjectCognitiveIsNoOp(t *testing.T) {
	s := gtkstate.NewCognitiveState()
	s.Belief["a"] = []int64{1, 2}
	out, w := ProjectCognitive(s)
	if len(out.Belief["a"]) != 2 {
		t.Error("cognitive projection must not alter belief content")
	}
	if !w.Empty() {
		t.Error("cognitive projection never clamps anything, witness must be empty")
	}
}
