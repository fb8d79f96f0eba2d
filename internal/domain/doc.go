// Package domain models the forecast verification dataset processed by the
// heatmap batch converter.
//
// # Data Source
//
// Each input archive holds one verification window exported by the upstream
// forecast collector: a prediction tensor with the outputs of every forecast
// model, and a truth tensor with the matching ERA5 reanalysis fields. The
// tensors are NumPy .npy files named api_x.npy (predictions) and y.npy
// (truth), located anywhere inside the extracted tree.
//
// # Axis Conventions
//
// Truth tensor, rank 4:
//
//	(latitude cell, longitude cell, forecast hour, feature)
//	default geometry 720 x 1440 x 20 x 6 (0.25 degree global grid).
//
// Prediction tensor, rank 5, with a leading model axis:
//
//	(model, latitude cell, longitude cell, forecast hour, feature)
//
// A rank-4 prediction tensor is accepted and treated as a single-model stack.
// A rank-5 truth tensor with a leading singleton axis sheds it. Only the
// model axis is ever reconciled this way; a singleton anywhere else fails
// reconciliation instead of silently changing meaning.
//
// # Models
//
// Fixed column order: best_match, ecmwf_ifs, gfs_global, graphcast, aifs.
// ECMWF IFS is the reference model: the heatmap renders its absolute RMSE
// against ERA5 and, for every other model, RMSE(model) - RMSE(ecmwf_ifs).
//
// # Features
//
// Fixed row order, with the unit conversion applied to prediction and truth
// alike before differencing:
//
//	2t   2 m temperature          (no conversion)
//	2d   2 m dewpoint             (no conversion)
//	100u 100 m wind u component   (km/h -> m/s, factor 1/3.6)
//	100v 100 m wind v component   (km/h -> m/s, factor 1/3.6)
//	tp   total precipitation      (no conversion)
//	sp   surface pressure         (no conversion)
//
// # Error Taxonomy
//
// ExtractionError, MissingDataError, and ShapeMismatchError are archive
// scoped: the orchestrator logs them with the archive identity and moves on
// to the next archive. A missing source directory is the only fatal error.
// Cleanup failures are warnings and never surface as an archive outcome.
package domain
