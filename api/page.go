package api

import (
	"bytes"
	"compress/gzip"
	_ "embed"
	"net/http"
	"strconv"
)

//go:embed static/index.html
var indexPage []byte

func compressPage(page []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	_, err = zw.Write(page)
	if err != nil {
		return nil, err
	}

	err = zw.Close()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (a *Api) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		noCache(h)
		h.Set("Content-Encoding", "gzip")
		h.Set("Content-Type", "text/html; charset=utf-8")
		h.Set("Content-Length", strconv.Itoa(len(a.page)))
		w.WriteHeader(http.StatusOK)

		if r.Method == http.MethodHead {
			return
		}

		_, err := w.Write(a.page)
		if err != nil {
			a.log.Errorf("Could not write page: %v", err)
		}
	}
}
