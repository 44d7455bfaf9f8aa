package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_ServerFirst(t *testing.T) {
	n := ServerFirst("Registration failed")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message wins",
			err:  NewServerRejectedError("create", 409, "duplicate identifier"),
			want: "duplicate identifier",
		},
		{
			name: "rejected without message uses fallback",
			err:  NewServerRejectedError("create", 500, ""),
			want: "Registration failed",
		},
		{
			name: "transport error",
			err:  NewTransportError("create", fmt.Errorf("dial tcp: connection refused")),
			want: TransportMessage,
		},
		{
			name: "wrapped rejection is still found",
			err:  fmt.Errorf("submit: %w", NewServerRejectedError("create", 422, "invalid block")),
			want: "invalid block",
		},
		{
			name: "plain error",
			err:  stderrors.New("boom"),
			want: "boom",
		},
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Message(tt.err))
		})
	}
}

func TestNormalizer_ErrorFirst(t *testing.T) {
	n := ErrorFirst("Registration failed")

	assert.Equal(t, "Request failed with status code 409",
		n.Message(NewServerRejectedError("create", 409, "duplicate identifier")))
	assert.Equal(t, TransportMessage,
		n.Message(NewTransportError("create", fmt.Errorf("timeout"))))
	assert.Equal(t, "boom", n.Message(stderrors.New("boom")))
}

func TestNormalizer_RejectedWithoutMessage(t *testing.T) {
	rejected := NewServerRejectedError("create", 500, "")

	assert.Equal(t, "Registration failed", ServerFirst("Registration failed").Message(rejected))
	assert.Equal(t, "Registration failed", ErrorFirst("Registration failed").Message(rejected))
	assert.Equal(t, "Request failed with status code 500", ServerFirst("").Message(rejected))
	assert.Equal(t, "Request failed with status code 500", ErrorFirst("").Message(rejected))
}

func TestNormalizer_Fallback(t *testing.T) {
	n := Normalizer{Precedence: []MessageSource{SourceServerMessage}, Fallback: "Try again later"}
	assert.Equal(t, "Try again later", n.Message(stderrors.New("boom")))

	n.Fallback = ""
	assert.Equal(t, DefaultFallback, n.Message(stderrors.New("boom")))
}

func TestParsePrecedence(t *testing.T) {
	got, err := ParsePrecedence("error_message, server_message")
	require.NoError(t, err)
	assert.Equal(t, []MessageSource{SourceErrorMessage, SourceServerMessage}, got)

	_, err = ParsePrecedence("server_message,headers")
	assert.Error(t, err)

	_, err = ParsePrecedence(" , ")
	assert.Error(t, err)
}

func TestStandardErrorHelpers(t *testing.T) {
	rejected := NewServerRejectedError("lookup", 503, "")
	assert.True(t, IsRetryable(rejected))
	assert.True(t, HasCode(fmt.Errorf("wrap: %w", rejected), ErrCodeServerRejected))
	assert.False(t, IsRetryable(NewServerRejectedError("lookup", 409, "dup")))

	internal := AsStandard(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, internal.Code)
	assert.Nil(t, AsStandard(nil))

	assert.Equal(t, "GATEWAY", GetErrorCategory(ErrCodePartialFlow))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeLocalValidation))
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeNotFound))
	assert.Equal(t, 0, GetRetryCount(ErrCodeLocalValidation))
}
