package admissibility

import "testing"

func TestComputeResidualsZeroForAdmissibleState(t *testing.T) {
	rho := [][]int64{{10, 20}, {30, 40}}
	theta := [][]int64{{0, 0}, {0, 0}}
	c := [][]int64{{1, 2}, {3, 4}}

	r := ComputeResiduals(rho, theta, c, 2, 2, 100, K{RhoMax: 100})
	if !r.Feasible() {
		t.Fatalf("expected a feasible state to report zero feasibility residuals, got %+v", r)
	}
	if r.StationarityTheta != 0 {
		t.Errorf("expected zero stationarity residual for a flat theta field, got %d", r.StationarityTheta)
	}
}

func TestComputeResidualsSumsViolations(t *testing.T) {
	rho := [][]int64{{-5, 150}}
	theta := [][]int64{{0, 0}}
	c := [][]int64{{-3, 0}}

	r := ComputeResiduals(rho, theta, c, 1, 2, -10, K{RhoMax: 100})
	if r.FeasRho != 5+50 {
		t.Errorf("expected rho residual 55, got %d", r.FeasRho)
	}
	if r.FeasC != 3 {
		t.Errorf("expected C residual 3, got %d", r.FeasC)
	}
	if r.FeasBudget != 10 {
		t.Errorf("expected budget residual 10, got %d", r.FeasBudget)
	}
	if r.Feasible() {
		t.Error("a state with nonzero residuals must not report Feasible")
	}
}

func TestComputeResidualsStationarityMatchesLaplacianNorm(t *testing.T) {
	theta := [][]int64{{0, 0, 0}, {0, 10, 0}, {0, 0, 0}}
	rho := [][]int64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	c := [][]int64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}

	r := ComputeResiduals(rho, theta, c, 3, 3, 0, K{RhoMax: 100})

	lap := DiscreteLaplacian(theta, 3, 3)
	var want int64
	for i := range lap {
		for _, v := range lap[i] {
			want += v * v
		}
	}
	if r.StationarityTheta != want {
		t.Errorf("expected stationarity residual %d to match the Laplacian norm, got %d", want, r.StationarityTheta)
	}
}
