package admissibility

// Residuals reports how far a grid state sits from K before projection, and
// a stationarity proxy for the phase field, grounded on the original
// reference implementation's kkt_residual_q diagnostic: feasibility
// residuals for each box constraint, plus a Laplacian-norm proxy for
// theta's stationarity. None of these feed a step's accept/reject decision
// — that is ProjectGrid's job — they are read-only diagnostics a host can
// surface alongside a receipt (e.g. in a rich-variant witness) to explain
// *how far* a proposal was from admissible, not just *whether* it was.
type Residuals struct {
	FeasRho           int64 // sum of |violation| for rho outside [0, rho_max]
	FeasC             int64 // sum of |violation| for C < 0
	FeasBudget        int64 // |violation| for budget < 0
	StationarityTheta int64 // sum of squared discrete Laplacian values of theta
}

// ComputeResiduals evaluates Residuals for a proposed grid state against K.
func ComputeResiduals(rho, theta, c [][]int64, n, m int, budget int64, k K) Residuals {
	var feasRho, feasC int64
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			v := rho[i][j]
			switch {
			case v < 0:
				feasRho += -v
			case v > k.RhoMax:
				feasRho += v - k.RhoMax
			}
			if c[i][j] < 0 {
				feasC += -c[i][j]
			}
		}
	}

	feasBudget := int64(0)
	if budget < 0 {
		feasBudget = -budget
	}

	lap := DiscreteLaplacian(theta, n, m)
	var stat int64
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			stat += lap[i][j] * lap[i][j]
		}
	}

	return Residuals{
		FeasRho:           feasRho,
		FeasC:             feasC,
		FeasBudget:        feasBudget,
		StationarityTheta: stat,
	}
}

// Feasible reports whether every feasibility residual is zero — equivalent
// to the proposal already lying in K without needing ProjectGrid to move
// it.
func (r Residuals) Feasible() bool {
	return r.FeasRho == 0 && r.FeasC == 0 && r.FeasBudget == 0
}
