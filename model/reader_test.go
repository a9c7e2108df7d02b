package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const goodDoc = `{
	"loci": [
		{"name": "L1", "alleles": 2},
		{"name": "L2", "alleles": 3}
	],
	"wildpops": ["river1", "river2"],
	"hatcheries": ["hatchA"],
	"groups": [1, 2, 2],
	"group_names": ["north", "south"],
	"baseline": [
		[10, 2, 5, 5, 2],
		[2, 10, 1, 4, 7],
		[6, 6, 4, 4, 4]
	],
	"mixture": [
		[2, 0, 1, 1, 0],
		[0, 2, 0, 0, 2],
		[1, 1, 2, 0, 0]
	],
	"origins": [0, 0, 3]
}`

func TestReadDataset(t *testing.T) {
	assert := assert.New(t)

	d, err := NewDatasetFromBuffer([]byte(goodDoc))
	assert.NoError(err)
	assert.NotNil(d)

	assert.Equal([]string{"river1", "river2"}, d.WildPops)
	assert.Equal([]string{"hatchA"}, d.Hatchery)
	assert.Equal(2, d.Loci[0].Card)
	assert.Equal(2, d.Loci[1].Offset)
	assert.Equal(10.0, d.Baseline.At(0, 0))
	assert.Equal(2.0, d.Mixture.At(2, 2))

	// Origins: 0 means unknown, otherwise 1-based population index
	assert.Equal([]int{UnknownOrigin, UnknownOrigin, 2}, d.Origins)
	assert.Equal(Multinomial, d.FamilyKind())
}

func TestReadDatasetBad(t *testing.T) {
	assert := assert.New(t)

	d, err := NewDatasetFromBuffer([]byte("not json"))
	assert.Nil(d)
	assert.Error(err)

	// ragged rows
	d, err = NewDatasetFromBuffer([]byte(`{
		"loci": [{"name": "L1", "alleles": 2}],
		"wildpops": ["a"], "groups": [1], "group_names": ["g"],
		"baseline": [[1, 2, 3]], "mixture": []
	}`))
	assert.Nil(d)
	assert.Error(err)
}

func TestReadIsotopeDataset(t *testing.T) {
	assert := assert.New(t)

	doc := `{
		"loci": [{"name": "L1", "alleles": 2}],
		"wildpops": ["a", "b"],
		"groups": [1, 2],
		"group_names": ["g1", "g2"],
		"baseline": [[4, 0], [0, 4]],
		"mixture": [[2, 0], [0, 2]],
		"family": "normal",
		"iso_values": [1.5, null],
		"iso_mean": [1.0, 4.0],
		"iso_sd": [0.5, 0.5]
	}`

	d, err := NewDatasetFromBuffer([]byte(doc))
	assert.NoError(err)
	assert.Equal(IsotopeGaussian, d.FamilyKind())
	assert.Equal(1.5, d.Covariates.IsoValue[0])
	assert.True(math.IsNaN(d.Covariates.IsoValue[1]))
}

func TestReadPathogenDataset(t *testing.T) {
	assert := assert.New(t)

	doc := `{
		"loci": [{"name": "L1", "alleles": 2}],
		"wildpops": ["a", "b"],
		"groups": [1, 2],
		"group_names": ["g1", "g2"],
		"baseline": [[4, 0], [0, 4]],
		"mixture": [[2, 0], [0, 2]],
		"family": "ichthy",
		"infected": [1, -1],
		"strata": [1, 1],
		"num_strata": 1,
		"prev_alpha": [[1, 1]],
		"prev_beta": [[1, 1]]
	}`

	d, err := NewDatasetFromBuffer([]byte(doc))
	assert.NoError(err)
	assert.Equal(PathogenBetaBin, d.FamilyKind())
	assert.Equal(StatusMissing, d.Covariates.Infected[1])
	assert.Equal(1.0, d.Covariates.PrevAlpha.At(0, 0))
}
