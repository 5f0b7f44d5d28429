package visitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputCapturesLastValue(t *testing.T) {
	out := NewOutput()
	assert.Nil(t, out.Value())

	s := "hello"
	require.NoError(t, out.VisitString("s", &s))
	assert.Equal(t, "hello", out.Value())

	n := int64(7)
	require.NoError(t, out.VisitInt("n", &n))
	assert.Equal(t, int64(7), out.Value())

	b := true
	require.NoError(t, out.VisitBool("b", &b))
	assert.Equal(t, true, out.Value())
}

func TestInputKindChecking(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		visit   func(v Visitor) (any, error)
		want    any
		wantErr error
	}{
		{
			name:  "string into string",
			value: "abc",
			visit: func(v Visitor) (any, error) {
				var s string
				err := v.VisitString("p", &s)
				return s, err
			},
			want: "abc",
		},
		{
			name:  "bool into string",
			value: true,
			visit: func(v Visitor) (any, error) {
				var s string
				err := v.VisitString("p", &s)
				return s, err
			},
			want:    "",
			wantErr: ErrInvalidType,
		},
		{
			name:  "int widths into int",
			value: int32(-5),
			visit: func(v Visitor) (any, error) {
				var n int64
				err := v.VisitInt("p", &n)
				return n, err
			},
			want: int64(-5),
		},
		{
			name:  "string into int",
			value: "5",
			visit: func(v Visitor) (any, error) {
				var n int64
				err := v.VisitInt("p", &n)
				return n, err
			},
			want:    int64(0),
			wantErr: ErrInvalidType,
		},
		{
			name:  "bool into bool",
			value: false,
			visit: func(v Visitor) (any, error) {
				b := true
				err := v.VisitBool("p", &b)
				return b, err
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.visit(NewInput(tt.value))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringInputParsesText(t *testing.T) {
	var s string
	require.NoError(t, NewStringInput("usb-bus").VisitString("label", &s))
	assert.Equal(t, "usb-bus", s)

	var b bool
	require.NoError(t, NewStringInput("true").VisitBool("realized", &b))
	assert.True(t, b)

	var n int64
	require.NoError(t, NewStringInput("42").VisitInt("busnr", &n))
	assert.Equal(t, int64(42), n)

	err := NewStringInput("maybe").VisitBool("realized", &b)
	assert.ErrorIs(t, err, ErrInvalidText)

	err = NewStringInput("forty").VisitInt("busnr", &n)
	assert.ErrorIs(t, err, ErrInvalidText)
}
