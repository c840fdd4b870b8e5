package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querygate/internal/queryir"
)

// RunWithGolden runs a scenario and compares its canonical snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	require.NoError(t, err, "scenario %q failed to run", scenario.Name)

	snapshot := map[string]any{
		"scenario": scenario.Name,
	}
	if result.ErrorCode != "" {
		snapshot["error_code"] = result.ErrorCode
	} else {
		snapshot["sql"] = result.SQL
		snapshot["params"] = normalizeValue(result.Params)
	}

	data, err := queryir.MarshalCanonical(snapshot)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}
