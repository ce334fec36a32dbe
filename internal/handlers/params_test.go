package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bmizerany/pat"
	"github.com/stretchr/testify/assert"
)

func TestGetParam(t *testing.T) {
	var got string
	mux := pat.New()
	mux.Get("/rentals/:id", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = getParam(r, "id")
	}))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rentals/r-1", nil))
	assert.Equal(t, "r-1", got)

	std := http.NewServeMux()
	std.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = getParam(r, "id")
	})
	std.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/p-9", nil))
	assert.Equal(t, "p-9", got)

	assert.Equal(t, "", getParam(nil, "id"))
	assert.Equal(t, "x", getParam(httptest.NewRequest(http.MethodGet, "/?id=x", nil), "id"))
}
