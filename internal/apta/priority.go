package apta

import (
	"github.com/dekarrin/mucalcsat/internal/formula"
	"github.com/dekarrin/mucalcsat/internal/util"
)

// findInnerFixpoint returns the first MU/NU node encountered while scanning
// f depth-first (left before right), or nil if f contains none. NEG never
// contains one, since its Sub is restricted to a PROP.
func findInnerFixpoint(f *formula.Formula) *formula.Formula {
	switch f.Kind {
	case formula.Mu, formula.Nu:
		return f
	case formula.And, formula.Or:
		if r := findInnerFixpoint(f.Left); r != nil {
			return r
		}
		return findInnerFixpoint(f.Right)
	case formula.Dia, formula.Box:
		return findInnerFixpoint(f.Sub)
	default:
		return nil
	}
}

// alternationDepth counts strict fixpoint alternations along the principal
// subformula path: for chi = Qx.psi, find the next inner fixpoint Q'y.psi' reachable
// from psi; if y is non-vacuously used in its own body and Q' differs from
// Q, that is a genuine alternation (add 1) and recursion continues from the
// inner fixpoint; otherwise the inner fixpoint is skipped over (no
// increment) and recursion still continues from it. The base case (no inner
// fixpoint at all) returns 1 if chi's own bound variable is used in psi,
// else 0 (a vacuous fixpoint contributes nothing).
func alternationDepth(chi *formula.Formula) int {
	inner := findInnerFixpoint(chi.Sub)
	if inner == nil {
		if formula.VariableOccurs(chi.Name, chi.Sub) {
			return 1
		}
		return 0
	}
	if inner.Kind != chi.Kind && formula.VariableOccurs(inner.Name, inner.Sub) {
		return 1 + alternationDepth(inner)
	}
	return alternationDepth(inner)
}

// alternationLevel computes level(MU) = 2*ceil((d+1)/2) - 1 (always odd)
// or level(NU) = 2*floor(d/2) (always even) for alternation depth d.
func alternationLevel(f *formula.Formula) int {
	d := alternationDepth(f)
	if f.Kind == formula.Mu {
		return 2*((d+2)/2) - 1
	}
	return 2 * (d / 2)
}

// ComputeTotalPriority assigns every state's Priority field (Omega) from its
// PrimePriority field (Omega') by propagating the maximum prime priority
// across each strongly connected component of the state graph: a state in a
// nontrivial SCC, or one with a self-loop, takes the max over its component;
// an isolated, loop-free state takes priority 0. This is Tarjan's algorithm
// run iteratively (an explicit stack standing in for the call stack) so
// that construction isn't bounded by recursion depth on large formulae,
// matching the iterative-traversal style of internal/util.Stack.
func (a *APTA) ComputeTotalPriority() {
	n := len(a.States)
	if n == 0 {
		return
	}

	indexOf := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	visited := make([]bool, n)
	for i := range indexOf {
		indexOf[i] = -1
	}

	var sccStack []int
	nextIndex := 0
	components := make([][]int, 0, n)

	// successors flattens every label's target set for a given state.
	successors := func(idx int) []int {
		st := a.States[idx]
		set := util.NewKeySet[int]()
		for _, targets := range st.Next {
			set.AddAll(targets)
		}
		return set.Elements()
	}

	type frame struct {
		v       int
		succs   []int
		succIdx int
	}

	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		var work []*frame
		work = append(work, &frame{v: start, succs: successors(start)})
		indexOf[start] = nextIndex
		lowlink[start] = nextIndex
		nextIndex++
		visited[start] = true
		sccStack = append(sccStack, start)
		onStack[start] = true

		for len(work) > 0 {
			top := work[len(work)-1]
			if top.succIdx < len(top.succs) {
				w := top.succs[top.succIdx]
				top.succIdx++

				if !visited[w] {
					indexOf[w] = nextIndex
					lowlink[w] = nextIndex
					nextIndex++
					visited[w] = true
					sccStack = append(sccStack, w)
					onStack[w] = true
					work = append(work, &frame{v: w, succs: successors(w)})
				} else if onStack[w] {
					if indexOf[w] < lowlink[top.v] {
						lowlink[top.v] = indexOf[w]
					}
				}
				continue
			}

			// Done with top.v: pop it, propagate lowlink to parent.
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1]
				if lowlink[top.v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[top.v]
				}
			}

			if lowlink[top.v] == indexOf[top.v] {
				var comp []int
				for {
					w := sccStack[len(sccStack)-1]
					sccStack = sccStack[:len(sccStack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == top.v {
						break
					}
				}
				components = append(components, comp)
			}
		}
	}

	for _, comp := range components {
		selfLoop := false
		if len(comp) == 1 {
			q := comp[0]
			for _, target := range successors(q) {
				if target == q {
					selfLoop = true
					break
				}
			}
			if !selfLoop {
				a.States[q].Priority = 0
				continue
			}
		}

		max := 0
		for _, q := range comp {
			if a.States[q].PrimePriority > max {
				max = a.States[q].PrimePriority
			}
		}
		for _, q := range comp {
			a.States[q].Priority = max
		}
	}
}
