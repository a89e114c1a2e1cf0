package middleware

import (
	"compress/gzip"
	"strings"

	"github.com/gin-gonic/gin"
)

type gzipWriter struct {
	gin.ResponseWriter
	writer *gzip.Writer
	wrote  bool
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	g.wrote = true
	return g.writer.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.Write([]byte(s))
}

func (g *gzipWriter) WriteHeader(code int) {
	g.Header().Del("Content-Length")
	g.ResponseWriter.WriteHeader(code)
}

// CompressConfig represents compression configuration
type CompressConfig struct {
	Level        int
	Blacklist    []string
	// SkipSuffixes holds path suffixes whose bodies are already compressed.
	SkipSuffixes []string
}

// DefaultCompressConfig returns default compression configuration
func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		Level: gzip.DefaultCompression,
		Blacklist: []string{
			"/api/v1/health",
			"/static/",
		},
		SkipSuffixes: []string{"/export"},
	}
}

// Compress gzips responses for clients that accept it.
func Compress(config CompressConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range config.Blacklist {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		for _, suffix := range config.SkipSuffixes {
			if strings.HasSuffix(path, suffix) {
				c.Next()
				return
			}
		}

		if !strings.Contains(c.Request.Header.Get("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gz, err := gzip.NewWriterLevel(c.Writer, config.Level)
		if err != nil {
			c.Next()
			return
		}

		gw := &gzipWriter{ResponseWriter: c.Writer, writer: gz}
		c.Writer = gw
		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		c.Next()

		c.Writer = gw.ResponseWriter
		if !gw.wrote {
			// Bodyless responses such as 204 must not carry a gzip trailer.
			c.Writer.Header().Del("Content-Encoding")
			return
		}
		_ = gz.Close()
	}
}
