package httpjson

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "bad input")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad input"}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	var v struct {
		Input string `json:"input"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"input":"hi"}`))
	require.NoError(t, Decode(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "hi", v.Input)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.EqualError(t, Decode(httptest.NewRecorder(), r, &v), "empty body")

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"input":`))
	assert.Error(t, Decode(httptest.NewRecorder(), r, &v))
}
