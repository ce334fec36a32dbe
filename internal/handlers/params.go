package handlers

import "net/http"

// getParam reads a route parameter. pat exposes ":name" as a query value,
// plain query values and net/http path values are accepted as well.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	q := r.URL.Query()
	for _, key := range []string{":" + name, name} {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	return r.PathValue(name)
}
