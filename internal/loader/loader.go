// Package loader locates and deserializes the two tensor files from an
// extraction workspace and reconciles their shapes.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/domain"
	"github.com/couchcryptid/forecast-heatmap-etl/internal/tensor"
)

// Pair holds a reconciled tensor pair. Pred always carries a leading model
// axis; Truth is rank 4. The trailing four axes of Pred match Truth exactly.
type Pair struct {
	Pred  *tensor.Tensor
	Truth *tensor.Tensor
}

// FileLoader reads the prediction and truth tensors named by the dataset
// register from anywhere inside an extracted tree.
type FileLoader struct {
	ds     domain.Dataset
	logger *slog.Logger
}

// New creates a FileLoader for the given dataset register.
func New(ds domain.Dataset, logger *slog.Logger) *FileLoader {
	return &FileLoader{ds: ds, logger: logger}
}

// Load searches root recursively for both tensor files, deserializes them,
// and reconciles their shapes against each other and the register geometry.
// All failures are archive scoped.
func (l *FileLoader) Load(root string) (Pair, error) {
	predPath, err := findFile(root, l.ds.PredictionFile)
	if err != nil {
		return Pair{}, err
	}
	truthPath, err := findFile(root, l.ds.TruthFile)
	if err != nil {
		return Pair{}, err
	}

	pred, err := readTensor(predPath)
	if err != nil {
		return Pair{}, err
	}
	truth, err := readTensor(truthPath)
	if err != nil {
		return Pair{}, err
	}
	l.logger.Debug("tensors loaded",
		"prediction", predPath, "prediction_shape", pred.Shape(),
		"truth", truthPath, "truth_shape", truth.Shape())

	return reconcile(l.ds, pred, truth)
}

// findFile walks root looking for a file with the exact base name. WalkDir
// visits entries in lexical order, so the first hit is deterministic.
func findFile(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search %s for %s: %w", root, name, err)
	}
	if found == "" {
		return "", &domain.MissingDataError{File: name, Root: root}
	}
	return found, nil
}

func readTensor(path string) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := tensor.ReadNPY(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// Truth axis names, in order, used in shape-mismatch reports.
var axisNames = [4]string{"latitude", "longitude", "hour", "feature"}

// reconcile normalizes the pair to (model, lat, lon, hour, feature) against
// (lat, lon, hour, feature) and verifies every axis against the register.
//
// Only the model axis is ever squeezed: a rank-5 prediction with a size-1
// leading axis collapses to a single-model stack, and a truth tensor with a
// size-1 leading axis sheds it. A singleton anywhere else fails the per-axis
// size check below rather than being silently removed.
func reconcile(ds domain.Dataset, pred, truth *tensor.Tensor) (Pair, error) {
	if truth.Rank() == 5 && truth.Size(0) == 1 {
		var err error
		if truth, err = truth.Squeeze(0); err != nil {
			return Pair{}, err
		}
	}
	if truth.Rank() != 4 {
		return Pair{}, &domain.ShapeMismatchError{Axis: "rank", Want: 4, Got: truth.Rank()}
	}

	switch pred.Rank() {
	case 5:
		// Leading axis is the model axis by layout; kept for multi-model
		// stacks, effectively squeezed by the model-count check when the
		// register holds a single model.
	case 4:
		pred = pred.PrependAxis()
	default:
		return Pair{}, &domain.ShapeMismatchError{Axis: "rank", Want: 5, Got: pred.Rank()}
	}

	if pred.Size(0) != len(ds.Models) {
		return Pair{}, &domain.ShapeMismatchError{Axis: "model", Want: len(ds.Models), Got: pred.Size(0)}
	}

	for i, name := range axisNames {
		if pred.Size(i+1) != truth.Size(i) {
			return Pair{}, &domain.ShapeMismatchError{Axis: name, Want: truth.Size(i), Got: pred.Size(i + 1)}
		}
	}

	want := [4]int{ds.Lat, ds.Lon, ds.Hours, len(ds.Features)}
	for i, name := range axisNames {
		if truth.Size(i) != want[i] {
			return Pair{}, &domain.ShapeMismatchError{Axis: name, Want: want[i], Got: truth.Size(i)}
		}
	}

	return Pair{Pred: pred, Truth: truth}, nil
}

// IsArchiveScoped reports whether err is one of the typed archive-local
// failures, as opposed to an unexpected fault.
func IsArchiveScoped(err error) bool {
	var missing *domain.MissingDataError
	var shape *domain.ShapeMismatchError
	return errors.As(err, &missing) || errors.As(err, &shape)
}
