package rates

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/freight-cli/internal/model"
)

func TestCombine_Busan(t *testing.T) {
	inland := []InlandRow{
		{POD: "BUSAN", Destination: "PARIS", ContainerType: "40HC", Rate: ptr(500)},
		{POD: "ANTWERP", Destination: "PARIS", ContainerType: "40HC", Rate: ptr(400)},
	}
	ocean := []OceanRow{
		{POD: "BUSAN", Rate20: ptr(600), Rate40: ptr(800)},
		{POD: "ANTWERP", Rate20: ptr(700), Rate40: ptr(900)},
	}

	res := Combine(inland, ocean)

	require.Len(t, res.Routes, 2)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 2, res.Total)
	// Both total 1300; ANTWERP sorts before BUSAN.
	assert.Equal(t, "ANTWERP", res.Routes[0].POD)
	assert.Equal(t, 1, res.Routes[0].CostRank)
	assert.Equal(t, "BUSAN", res.Routes[1].POD)
	assert.Equal(t, 2, res.Routes[1].CostRank)
	assert.InDelta(t, 1300, *res.Routes[1].TotalRate, 0.001)
	assert.InDelta(t, 800, *res.Routes[1].OceanRate, 0.001)
	for _, r := range res.Routes {
		assert.Equal(t, 2, r.TotalRoutes)
		assert.True(t, r.Matched)
	}
}

func TestCombine_ContainerSizes(t *testing.T) {
	ocean := []OceanRow{{POD: "BUSAN", Rate20: ptr(600), Rate40: ptr(800)}}
	inland := []InlandRow{
		{POD: "BUSAN", Destination: "LYON", ContainerType: "20DC", Rate: ptr(100)},
		{POD: "BUSAN", Destination: "LYON", ContainerType: "40DC", Rate: ptr(100)},
		{POD: "BUSAN", Destination: "LYON", ContainerType: "45HC", Rate: ptr(100)},
		{POD: "BUSAN", Destination: "LYON", ContainerType: "4", Rate: ptr(100)},
		{POD: "HAMBURG", Destination: "LYON", ContainerType: "20DC", Rate: ptr(100)},
		{POD: "BUSAN", Destination: "LYON", ContainerType: "20DC"},
	}

	res := Combine(inland, ocean)
	require.Len(t, res.Routes, 6)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 3, res.Matched)

	byKey := map[string]model.RankedRoute{}
	for _, r := range res.Routes {
		byKey[fmt.Sprintf("%s/%s/%v", r.POD, r.ContainerType, r.Rate != nil)] = r
	}
	assert.InDelta(t, 700, *byKey["BUSAN/20DC/true"].TotalRate, 0.001)
	assert.InDelta(t, 900, *byKey["BUSAN/40DC/true"].TotalRate, 0.001)
	assert.False(t, byKey["BUSAN/45HC/true"].Matched)
	assert.Nil(t, byKey["BUSAN/45HC/true"].TotalRate)
	assert.False(t, byKey["BUSAN/4/true"].Matched)
	assert.False(t, byKey["HAMBURG/20DC/true"].Matched)

	missingRate := byKey["BUSAN/20DC/false"]
	assert.True(t, missingRate.Matched)
	assert.Nil(t, missingRate.TotalRate)
	assert.Equal(t, 0, missingRate.CostRank)
}

func TestCombine_DuplicateOceanPODUsesLast(t *testing.T) {
	res := Combine(
		[]InlandRow{{POD: "BUSAN", Destination: "LYON", ContainerType: "40HC", Rate: ptr(1)}},
		[]OceanRow{{POD: "BUSAN", Rate40: ptr(10)}, {POD: "BUSAN", Rate40: ptr(20)}},
	)
	assert.InDelta(t, 21, *res.Routes[0].TotalRate, 0.001)
}
