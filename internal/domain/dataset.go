package domain

// Model is a forecast source stacked along the prediction tensor's model axis.
type Model struct {
	// Name is the identifier used in column labels and logs.
	Name string
	// Display is the human-readable label rendered above a heatmap column.
	Display string
}

// Feature is one forecast field, with the linear unit conversion applied to
// prediction and truth alike before error computation.
type Feature struct {
	Name    string
	Display string
	// Scale converts stored values to the comparison unit. Applying the same
	// scale to both tensors multiplies the resulting RMSE by |Scale|.
	Scale float64
}

// Dataset is the read-only register describing one dataset layout: the model
// stack, the feature rows, the reference model, and the expected geometry.
// It is constructed once at startup and passed explicitly; the numeric core
// never reaches for ambient globals.
type Dataset struct {
	Models    []Model
	Reference int // index into Models
	Features  []Feature

	// Expected truth-tensor geometry, in axis order.
	Lat   int
	Lon   int
	Hours int

	// Serialized tensor file names, searched for recursively in the
	// extracted tree.
	PredictionFile string
	TruthFile      string

	// TruthName labels the reanalysis source in titles.
	TruthName string
}

// DefaultDataset returns the production register: five models against ERA5 on
// a 720x1440 grid with 20 forecast hours and six features, ECMWF IFS as the
// reference model.
func DefaultDataset() Dataset {
	return Dataset{
		Models: []Model{
			{Name: "best_match", Display: "Best Match"},
			{Name: "ecmwf_ifs", Display: "ECMWF IFS"},
			{Name: "gfs_global", Display: "GFS Global"},
			{Name: "graphcast", Display: "GraphCast"},
			{Name: "aifs", Display: "AIFS"},
		},
		Reference: 1,
		Features: []Feature{
			{Name: "2t", Display: "temperature_2t", Scale: 1},
			{Name: "2d", Display: "dewpoint_2d", Scale: 1},
			{Name: "100u", Display: "u100_100u", Scale: 1.0 / 3.6},
			{Name: "100v", Display: "v100_100v", Scale: 1.0 / 3.6},
			{Name: "tp", Display: "precipitation_tp", Scale: 1},
			{Name: "sp", Display: "sp", Scale: 1},
		},
		Lat:            720,
		Lon:            1440,
		Hours:          20,
		PredictionFile: "api_x.npy",
		TruthFile:      "y.npy",
		TruthName:      "ERA5",
	}
}

// ReferenceModel returns the reference model entry.
func (d Dataset) ReferenceModel() Model {
	return d.Models[d.Reference]
}

// ErrorGrid is one unit of renderable work: scalar RMSE values with rows in
// feature order and columns in model order. The reference column holds the
// absolute RMSE against truth; every other column holds RMSE(model) minus
// RMSE(reference). NaN cells carry through from NaN or infinite inputs.
type ErrorGrid struct {
	// Hour is the 1-based forecast hour, or 0 for an all-hours pooled grid.
	Hour int

	RowLabels []string
	ColLabels []string
	// RefCol is the column index holding absolute values; all other columns
	// are reference-relative and share a symmetric diverging color scale.
	RefCol int

	// Values is indexed [row][col].
	Values [][]float64
}
