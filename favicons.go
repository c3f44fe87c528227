/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

//go:embed favicons/*
var favicons embed.FS

const faviconPath = "favicons/favicon.svg"

func getFavicon(cfg *Config) string {
	return `<link rel="icon" type="image/svg+xml" href="` + cfg.prefix + `/favicon.svg">
	<meta name="theme-color" content="#1f2937">`
}

func serveFavicon(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data, err := favicons.ReadFile(faviconPath)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("Expires", time.Now().Add(24*time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}
