package middleware

import "net/http"

// ResponseRecorder wraps a ResponseWriter and runs a hook right before headers
// are sent, so cookies can still be set by middleware that ran first.
type ResponseRecorder struct {
	http.ResponseWriter
	wrote       bool
	beforeWrite func(http.ResponseWriter)
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w}
}

// SetBeforeWrite registers fn to run once before the first header or body write.
func (rw *ResponseRecorder) SetBeforeWrite(fn func(http.ResponseWriter)) { rw.beforeWrite = fn }

func (rw *ResponseRecorder) prepare() {
	if rw.wrote {
		return
	}
	rw.wrote = true
	if rw.beforeWrite != nil {
		rw.beforeWrite(rw.ResponseWriter)
	}
}

func (rw *ResponseRecorder) WriteHeader(statusCode int) {
	rw.prepare()
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseRecorder) Write(b []byte) (int, error) {
	rw.prepare()
	return rw.ResponseWriter.Write(b)
}

func (rw *ResponseRecorder) Flush() {
	rw.prepare()
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Wrote reports whether anything reached the underlying writer.
func (rw *ResponseRecorder) Wrote() bool { return rw.wrote }

func (rw *ResponseRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
