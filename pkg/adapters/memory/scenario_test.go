package memory

import (
	"context"
	"testing"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScenario = `
geometry:
  - name: plaza
    min: {x: -20, y: -1, z: -20}
    max: {x: 20, y: 0, z: 20}
    walkable: true
nav:
  - center: {x: 5, y: 0, z: 5}
    radius: 3
subject:
  tag: Player
  name: Traveler
  position: {x: 0, y: 1, z: 0}
  has_controller: true
contexts:
  - id: harbor
    load_duration: 200ms
    anchors:
      Dock: {x: 4, y: 1, z: -2}
  - id: ruin
    loaded_name: Ruin_Collapsed
prices:
  harbor: 25
`

func TestParseScenario(t *testing.T) {
	world, loader, sc, err := ParseScenario([]byte(sampleScenario))
	require.NoError(t, err)

	assert.Len(t, sc.Geometry, 1)
	assert.Len(t, sc.Nav, 1)
	assert.Equal(t, 25.0, sc.Prices["harbor"])
	assert.ElementsMatch(t, []string{"harbor", "ruin"}, loader.Contexts())

	// The world was actually materialized, not just decoded.
	hit, ok := world.RaycastDown(domain.Vec3{X: 0, Y: 5, Z: 0}, 50)
	require.True(t, ok)
	assert.Zero(t, hit.Y)
	assert.Equal(t, domain.Vec3{X: 0, Y: 1, Z: 0}, world.SubjectPosition())

	_, err = world.ResolveSubject(context.Background())
	assert.NoError(t, err)
}

func TestParseScenario_DefaultSubject(t *testing.T) {
	world, _, _, err := ParseScenario([]byte("contexts:\n  - id: somewhere\n"))
	require.NoError(t, err)

	_, err = world.ResolveSubject(context.Background())
	assert.NoError(t, err, "a default tagged subject should be placed")
}

func TestParseScenario_Invalid(t *testing.T) {
	cases := map[string]string{
		"not yaml":           "geometry: [",
		"no contexts":        "geometry: []",
		"context without id": "contexts:\n  - loaded_name: Nameless\n",
		"bad duration":       "contexts:\n  - id: harbor\n    load_duration: soonish\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := ParseScenario([]byte(doc))
			assert.Error(t, err)
		})
	}
}
