package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/wordwolf/games/wordwolf"
	"github.com/Seednode/wordwolf/words"
)

const maxGenerateBody = 4 << 10

type generateRequest struct {
	Theme string `json:"theme"`
}

// serveGenerateWord always answers 200 with a usable pair. Anything the
// service cannot use (bad method, malformed body, invalid theme) gets a
// fallback pair.
func serveGenerateWord(cfg *Config, svc *words.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		pair, source := words.Fallback(), "fallback"

		if r.Method == http.MethodPost {
			var req generateRequest

			err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody)).Decode(&req)
			if err != nil {
				logf(cfg, "WORDS: Malformed request from %s: %v", realIP(r), err)
			} else if p, err := svc.Supply(r.Context(), req.Theme); err != nil {
				logf(cfg, "WORDS: Rejected theme %q from %s: %v", req.Theme, realIP(r), err)
			} else {
				pair, source = p, "supplied"
			}
		}

		data, err := json.Marshal(pair)
		if err != nil {
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: %s word pair (%s) to %s in %s",
			source,
			humanize.Bytes(uint64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func registerWordSupply(cfg *Config, svc *words.Service, mux *httprouter.Router, errs chan<- error) {
	mux.POST(cfg.prefix+words.GeneratePath, serveGenerateWord(cfg, svc, errs))
	mux.GET(cfg.prefix+words.GeneratePath, serveGenerateWord(cfg, svc, errs))
}

// gameURL is the absolute URL of the game page as seen by the requester,
// respecting TLS and X-Forwarded-Proto.
func gameURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")
}

// serveQR generates a PNG QR code pointing at the game page, so the device
// can be handed over or the game reopened on another phone.
func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		const qrSize = 320 // mobile-friendly size

		png, err := qrcode.Encode(gameURL(r), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveIndex(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_ = getOrSetSessionID(w, r)

		if err := serveAsset(cfg, w, r, "assets/wordwolf/index.html"); err != nil {
			errs <- err
		}
	}
}

// registerWordWolf sets up routes so that:
//   - $path       → HTML client
//   - $path/ws    → websocket bound to this device's game
//   - $path/qr    → PNG QR code for the game URL
//   - /assets/*   → shared static files
func registerWordWolf(cfg *Config, path string, source wordwolf.WordSource, mux *httprouter.Router, errs chan<- error) *SessionManager {
	sm := newSessionManager(source, cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, serveIndex(cfg, errs))

	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(cfg, errs))

	mux.GET(cfg.prefix+path+"/ws", serveSession(cfg, sm))

	mux.GET(cfg.prefix+path+"/qr", serveQR(cfg, errs))

	return sm
}
