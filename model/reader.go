package model

import (
	"encoding/json"
	"io/ioutil"
	"math"

	"github.com/pkg/errors"
)

// datasetDoc is the JSON document shape emitted by the external
// data-preparation step. Count tables arrive as row arrays sharing a fixed
// column order; loci list the allele-type cardinality that defines that
// order. Origins are 1-based population indexes with 0 meaning unknown;
// missing isotope values are encoded as null.
type datasetDoc struct {
	Loci []struct {
		Name    string `json:"name"`
		Alleles int    `json:"alleles"`
	} `json:"loci"`
	WildPops   []string    `json:"wildpops"`
	Hatcheries []string    `json:"hatcheries"`
	Groups     []int       `json:"groups"`
	GroupNames []string    `json:"group_names"`
	Baseline   [][]float64 `json:"baseline"`
	Mixture    [][]float64 `json:"mixture"`
	Origins    []int       `json:"origins"`

	Family string `json:"family"`

	IsoValues []*float64 `json:"iso_values"`
	IsoMean   []float64  `json:"iso_mean"`
	IsoSD     []float64  `json:"iso_sd"`

	Infected  []int       `json:"infected"`
	Strata    []int       `json:"strata"`
	NumStrata int         `json:"num_strata"`
	PrevAlpha [][]float64 `json:"prev_alpha"`
	PrevBeta  [][]float64 `json:"prev_beta"`
}

// NewDatasetFromFile reads and validates a dataset document.
func NewDatasetFromFile(filename string) (*Dataset, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ dataset from %s", filename)
	}

	return NewDatasetFromBuffer(data)
}

// NewDatasetFromBuffer parses a dataset document from pre-read data. The
// returned dataset has already passed Check.
func NewDatasetFromBuffer(data []byte) (*Dataset, error) {
	var doc datasetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "Could not PARSE dataset")
	}

	d := &Dataset{
		WildPops:  doc.WildPops,
		Hatchery:  doc.Hatcheries,
		GroupIDs:  doc.Groups,
		GroupName: doc.GroupNames,
	}

	off := 0
	for _, l := range doc.Loci {
		d.Loci = append(d.Loci, Locus{Name: l.Name, Offset: off, Card: l.Alleles})
		off += l.Alleles
	}

	var err error
	d.Baseline, err = tableFromRows(doc.Baseline, off)
	if err != nil {
		return nil, errors.Wrap(err, "Invalid baseline rows")
	}
	d.Mixture, err = tableFromRows(doc.Mixture, off)
	if err != nil {
		return nil, errors.Wrap(err, "Invalid mixture rows")
	}

	d.Origins = make([]int, d.Mixture.Rows)
	for m := range d.Origins {
		d.Origins[m] = UnknownOrigin
	}
	for m, o := range doc.Origins {
		if m >= len(d.Origins) {
			return nil, errors.Errorf("Origin labels exceed the %d mixture rows", d.Mixture.Rows)
		}
		if o > 0 {
			d.Origins[m] = o - 1
		}
	}

	cov, err := covariatesFromDoc(&doc, d)
	if err != nil {
		return nil, err
	}
	d.Covariates = cov

	if err := d.Check(); err != nil {
		return nil, errors.Wrap(err, "Parsed dataset is not valid")
	}

	return d, nil
}

func tableFromRows(rows [][]float64, cols int) (*CountTable, error) {
	t := NewCountTable(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Errorf("Row %d has %d columns, expected %d", i, len(row), cols)
		}
		copy(t.Row(i), row)
	}
	return t, nil
}

func covariatesFromDoc(doc *datasetDoc, d *Dataset) (*Covariates, error) {
	switch doc.Family {
	case "", Multinomial:
		return nil, nil

	case IsotopeGaussian:
		vals := make([]float64, len(doc.IsoValues))
		for i, v := range doc.IsoValues {
			if v == nil {
				vals[i] = math.NaN()
			} else {
				vals[i] = *v
			}
		}
		return &Covariates{
			Kind:     IsotopeGaussian,
			IsoValue: vals,
			IsoMean:  doc.IsoMean,
			IsoSD:    doc.IsoSD,
		}, nil

	case PathogenBetaBin:
		cov := &Covariates{
			Kind:      PathogenBetaBin,
			Infected:  doc.Infected,
			Stratum:   doc.Strata,
			NumStrata: doc.NumStrata,
		}
		var err error
		if doc.PrevAlpha != nil {
			cov.PrevAlpha, err = tableFromRows(doc.PrevAlpha, d.NumGroups())
			if err != nil {
				return nil, errors.Wrap(err, "Invalid prev_alpha rows")
			}
		}
		if doc.PrevBeta != nil {
			cov.PrevBeta, err = tableFromRows(doc.PrevBeta, d.NumGroups())
			if err != nil {
				return nil, errors.Wrap(err, "Invalid prev_beta rows")
			}
		}
		return cov, nil
	}

	return nil, errors.Errorf("Unknown family %q", doc.Family)
}
