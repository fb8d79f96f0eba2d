package tensor_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/forecast-heatmap-etl/internal/tensor"
)

func TestNew_ZeroFilled(t *testing.T) {
	tr := tensor.New(2, 3, 4)
	assert.Equal(t, 3, tr.Rank())
	assert.Equal(t, []int{2, 3, 4}, tr.Shape())
	assert.Equal(t, 24, tr.Len())
	assert.Zero(t, tr.At(1, 2, 3))
}

func TestAtSet_RowMajorLayout(t *testing.T) {
	tr := tensor.New(2, 3)
	tr.Set(7, 1, 2)

	assert.Equal(t, 7.0, tr.At(1, 2))
	// Row-major: element (1,2) is the last of six.
	assert.Equal(t, 7.0, tr.Data()[5])
}

func TestFromData_RejectsWrongLength(t *testing.T) {
	_, err := tensor.FromData([]int{2, 2}, make([]float64, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 4 elements")
}

func TestSqueeze(t *testing.T) {
	tr := tensor.New(1, 2, 3)
	tr.Set(5, 0, 1, 2)

	sq, err := tr.Squeeze(0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, sq.Shape())
	assert.Equal(t, 5.0, sq.At(1, 2))

	_, err = tr.Squeeze(1)
	require.Error(t, err, "axis of size 2 must not be squeezable")
}

func TestPrependAxis_SharesData(t *testing.T) {
	tr := tensor.New(2, 2)
	tr.Set(9, 1, 0)

	up := tr.PrependAxis()
	assert.Equal(t, []int{1, 2, 2}, up.Shape())
	assert.Equal(t, 9.0, up.At(0, 1, 0))

	up.Set(3, 0, 0, 1)
	assert.Equal(t, 3.0, tr.At(0, 1))
}

func TestNPY_RoundTrip(t *testing.T) {
	tr := tensor.New(2, 3, 2)
	for i := range tr.Data() {
		tr.Data()[i] = float64(i) * 1.5
	}

	var buf bytes.Buffer
	require.NoError(t, tensor.WriteNPY(&buf, tr))

	got, err := tensor.ReadNPY(&buf)
	require.NoError(t, err)
	assert.Equal(t, tr.Shape(), got.Shape())
	if diff := cmp.Diff(tr.Data(), got.Data()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestReadNPY_RejectsGarbage(t *testing.T) {
	_, err := tensor.ReadNPY(bytes.NewReader([]byte("not a npy file")))
	require.Error(t, err)
}
