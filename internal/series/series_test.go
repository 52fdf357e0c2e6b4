package series

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PreservesInsertionOrder(t *testing.T) {
	s, err := Decode([]byte(`{"Beginner":3,"Intermediate":5,"Advanced":2}`))
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"Beginner", "Intermediate", "Advanced"}, s.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{3, 5, 2}, s.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_NonAlphabeticOrderKept(t *testing.T) {
	s, err := Decode([]byte(`{"2024-03-03":1,"2024-03-01":0,"2024-03-02":4}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-03", "2024-03-01", "2024-03-02"}, s.Labels())
	assert.Equal(t, []int64{1, 0, 4}, s.Values())
}

func TestDecode_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	s, err := Decode([]byte(`{"a":1,"b":2,"a":7}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Labels())
	assert.Equal(t, []int64{7, 2}, s.Values())
}

func TestDecode_IntegralFloatsAccepted(t *testing.T) {
	s, err := Decode([]byte(`{"a":3.0,"b":1e2}`))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 100}, s.Values())
}

func TestDecode_EmptyObject(t *testing.T) {
	s, err := Decode([]byte(` {} `))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"null", `null`, ErrNull},
		{"array", `[1,2]`, ErrNotObject},
		{"string", `"{}"`, ErrNotObject},
		{"string count", `{"a":"3"}`, ErrNotNumber},
		{"bool count", `{"a":true}`, ErrNotNumber},
		{"nested", `{"a":{"b":1}}`, ErrNotNumber},
		{"fraction", `{"a":2.5}`, ErrFractional},
		{"negative", `{"a":-1}`, ErrNegative},
		{"negative exponent form", `{"a":-1e19}`, ErrNegative},
		{"above int64", `{"a":1e19}`, ErrOutOfRange},
		{"int64 overflow digits", `{"a":99999999999999999999}`, ErrOutOfRange},
		{"2^63", `{"a":9223372036854775808}`, ErrOutOfRange},
		{"float overflow", `{"a":1e400}`, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, payload := range []string{``, `{`, `{"a":1,}`, `{'a':1}`, `{"a":1} trailing`, `undefined`} {
		_, err := Decode([]byte(payload))
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestNew_RejectsNegative(t *testing.T) {
	_, err := New(Point{Label: "x", Count: -3})
	assert.ErrorIs(t, err, ErrNegative)
}

func TestSeries_Accessors(t *testing.T) {
	s := MustNew(Point{"Mon", 2}, Point{"Tue", 9}, Point{"Wed", 4})
	assert.Equal(t, int64(15), s.Total())
	assert.Equal(t, int64(9), s.Max())
	assert.Equal(t, int64(0), Series{}.Max())

	labels := s.Labels()
	labels[0] = "mutated"
	assert.Equal(t, "Mon", s.Labels()[0], "Labels must return a copy")
}

func TestSeries_MarshalJSONKeepsOrder(t *testing.T) {
	s := MustNew(Point{"z", 1}, Point{"a", 2})
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2}`, string(data))

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s.Points(), back.Points())
}
