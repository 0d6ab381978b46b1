package middleware

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// compressWriter routes the response body through a brotli or gzip encoder
// negotiated from Accept-Encoding. The encoder is created on the first write
// so handlers can still set headers.
type compressWriter struct {
	gin.ResponseWriter
	c       *gin.Context
	encoder io.WriteCloser
}

func (w *compressWriter) Write(p []byte) (int, error) {
	if w.encoder == nil {
		w.ResponseWriter.Header().Del("Content-Length")
		w.encoder = brotli.HTTPCompressor(w.ResponseWriter, w.c.Request)
	}
	return w.encoder.Write(p)
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *compressWriter) close() error {
	if w.encoder == nil {
		return nil
	}
	return w.encoder.Close()
}

// Compress negotiates brotli (preferred) or gzip response compression.
func Compress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		cw := &compressWriter{ResponseWriter: c.Writer, c: c}
		c.Writer = cw
		defer func() {
			if err := cw.close(); err != nil {
				GetLogger(c).WithError(err).Warn("Failed to flush compressed response")
			}
			c.Writer = cw.ResponseWriter
		}()

		c.Next()
	}
}
