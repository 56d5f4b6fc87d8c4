package probe

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

var allPaths = []string{"", "/health", "/api/health", "/status"}

// resultFor maps a generated code to a probe answer.
// 0 success, 1 soft 404, 2 500, 3 timeout, 4 unreachable.
func resultFor(code int, path string) Result {
	switch code {
	case 0:
		return ok(0)
	case 1:
		return soft(path)
	case 2:
		return status(500, path)
	case 3:
		return timeout(path)
	default:
		return Result{Outcome: OutcomeFailure, Err: &domain.CheckError{Kind: domain.ErrUnreachable, Path: path}}
	}
}

func TestPropertyCandidatesAreUniqueAndOrdered(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	props.Property("cached first, root next, no duplicates", prop.ForAll(
		func(idx int, hasCached bool) bool {
			cached := allPaths[idx]
			got := candidatePaths(cached, hasCached, DefaultHealthPaths)
			seen := map[string]bool{}
			for _, p := range got {
				if seen[p] {
					return false
				}
				seen[p] = true
			}
			if len(got) != len(allPaths) {
				return false
			}
			if hasCached {
				if got[0] != cached {
					return false
				}
				if cached != "" && got[1] != "" {
					return false
				}
			} else if !reflect.DeepEqual(got, allPaths) {
				return false
			}
			return true
		},
		gen.IntRange(0, len(allPaths)-1),
		gen.Bool(),
	))

	props.TestingRun(t)
}

func TestPropertyCheckIsDeterministic(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	props := gopter.NewProperties(params)

	props.Property("same answers give same status and same calls", prop.ForAll(
		func(codes []int) bool {
			run := func() (domain.ConnectionStatus, []string) {
				fp := newFakeProber()
				for i, p := range allPaths {
					fp.set(p, resultFor(codes[i], p))
				}
				c := NewChecker(zap.NewNop(), fp, nil, 0)
				st := c.Check(context.Background(), "http://server")
				return st, fp.reset()
			}
			a, callsA := run()
			b, callsB := run()
			return reflect.DeepEqual(callsA, callsB) &&
				a.Connected == b.Connected &&
				a.ViaPath == b.ViaPath &&
				fmt.Sprint(a.Err) == fmt.Sprint(b.Err)
		},
		gen.SliceOfN(len(allPaths), gen.IntRange(0, 4)),
	))

	props.Property("success short-circuits at the first success", prop.ForAll(
		func(codes []int) bool {
			fp := newFakeProber()
			first := -1
			for i, p := range allPaths {
				fp.set(p, resultFor(codes[i], p))
				if codes[i] == 0 && first < 0 {
					first = i
				}
			}
			c := NewChecker(zap.NewNop(), fp, nil, 0)
			st := c.Check(context.Background(), "http://server")
			calls := fp.reset()
			if first < 0 {
				return !st.Connected && len(calls) == len(allPaths)
			}
			return st.Connected && st.ViaPath == allPaths[first] && len(calls) == first+1
		},
		gen.SliceOfN(len(allPaths), gen.IntRange(0, 4)),
	))

	props.Property("failure surfaces the most specific kind seen", prop.ForAll(
		func(codes []int) bool {
			fp := newFakeProber()
			best := -1
			for i, p := range allPaths {
				fp.set(p, resultFor(codes[i], p))
				if r := specificity(resultFor(codes[i], p).Err.Kind); r > best {
					best = r
				}
			}
			c := NewChecker(zap.NewNop(), fp, nil, 0)
			st := c.Check(context.Background(), "http://server")
			return !st.Connected && st.LatencyMS == nil && specificity(st.Err.Kind) == best
		},
		gen.SliceOfN(len(allPaths), gen.IntRange(1, 4)),
	))

	props.TestingRun(t)
}
