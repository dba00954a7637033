package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, Internal},
		{"plain", errors.New("boom"), Internal},
		{"coded", New(NotFound, "Note not found"), NotFound},
		{"wrapped twice", fmt.Errorf("outer: %w", New(InvalidArgument, "bad")), InvalidArgument},
		{"empty code", &Error{Message: "x"}, Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestMessageOf_HidesInternalCauses(t *testing.T) {
	require.Equal(t, InternalMessage, MessageOf(errors.New("dial tcp 10.0.0.1: refused")))
	require.Equal(t, InternalMessage, MessageOf(Wrap(Internal, "store exploded", errors.New("boom"))))
	require.Equal(t, "Note not found", MessageOf(New(NotFound, "Note not found")))
	require.Equal(t, "not_found", MessageOf(&Error{Code: NotFound}))
}

func TestInvalid_CarriesFields(t *testing.T) {
	fields := []FieldError{{Field: "title", Message: "Title must be between 1 and 100 characters"}}
	err := fmt.Errorf("create: %w", Invalid("Validation failed", fields))

	require.True(t, Is(err, InvalidArgument))
	require.Equal(t, fields, FieldsOf(err))
	require.Nil(t, FieldsOf(errors.New("x")))
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(Internal, "", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "cause", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidArgument))
	require.Equal(t, http.StatusNotFound, HTTPStatus(NotFound))
	require.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(TooLarge))
	require.Equal(t, http.StatusTooManyRequests, HTTPStatus(RateLimited))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(Internal))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus("unknown"))
}
