package shared

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid json",
			requestBody: `{"name": "test", "age": 30}`,
		},
		{
			name:        "invalid json",
			requestBody: `{"name": "test", "age": 30,}`, // trailing comma
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost,
				"/test",
				bytes.NewBufferString(tc.requestBody),
			)

			var target struct {
				Name string `json:"name"`
				Age  int    `json:"age"`
			}
			err := DecodeJSON(req, &target)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "test", target.Name)
			assert.Equal(t, 30, target.Age)
		})
	}
}

// errorReader fails every read so DecodeJSON sees a broken body.
type errorReader struct{}

func (er errorReader) Read(p []byte) (n int, err error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target struct{}
	err := DecodeJSON(req, &target)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

// selfValidating implements the Validate interface that ValidateRequest
// prefers over struct tags.
type selfValidating struct {
	Name string
	err  error
}

func (v *selfValidating) Validate() error {
	return v.err
}

func TestValidateRequest(t *testing.T) {
	t.Run("uses the type's own Validate method", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&selfValidating{Name: "ok"}))
		assert.Error(t, ValidateRequest(&selfValidating{err: io.ErrUnexpectedEOF}))
	})

	t.Run("falls back to struct tags", func(t *testing.T) {
		type tagged struct {
			Name string `validate:"required"`
			Age  int    `validate:"gte=18"`
		}

		assert.NoError(t, ValidateRequest(&tagged{Name: "test", Age: 20}))
		assert.Error(t, ValidateRequest(&tagged{Name: "", Age: 20}))
		assert.Error(t, ValidateRequest(&tagged{Name: "test", Age: 12}))
	})

	t.Run("no tags means no error", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&struct{ Name string }{"test"}))
	})
}
