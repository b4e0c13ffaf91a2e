package sitemap

import (
	"net/http"
)

// Response is a transport-agnostic HTTP payload.
type Response struct {
	Body   []byte
	Status int
	Header http.Header
}

// Respond renders name (the index when empty) and wraps it with status and
// headers. Content-Type follows the active format; entries in header
// override it. A zero status means 200.
func (m *Manager) Respond(name string, status int, header http.Header) (*Response, error) {
	body, err := m.Render(name)
	if err != nil {
		return nil, err
	}

	if status == 0 {
		status = http.StatusOK
	}

	h := make(http.Header)
	if ct := m.format.ContentType(); ct != "" {
		h.Set("Content-Type", ct)
	}
	for key, values := range header {
		h[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}

	return &Response{Body: body, Status: status, Header: h}, nil
}

// ContentType returns the Content-Type header value, if any.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Write copies the payload to an http.ResponseWriter.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}
