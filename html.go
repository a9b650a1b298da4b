/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

//go:embed assets/*
var assets embed.FS

const cacheAge = time.Hour

func cacheFor(w http.ResponseWriter, d time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(d.Seconds())))
	w.Header().Set("Expires", time.Now().Add(d).UTC().Format(http.TimeFormat))
}

// noStore keeps pages that embed assignments out of shared caches.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

func humanReadableSize(bytes int) string {
	const unit = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

func serveHomePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		target := cfg.prefix + "/santa"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}

		securityHeaders(cfg, w)
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveAssets(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := path.Join("assets", path.Clean("/"+p.ByName("asset")))

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		cacheFor(w, cacheAge)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		switch path.Ext(fname) {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		}

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		// Every page below /santa can carry a draw in its query string.
		data := fmt.Sprintf(`User-agent: *
Disallow: %s/santa
`, cfg.prefix)

		cacheFor(w, cacheAge)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}

func registerHome(cfg *Config, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveHomePage(cfg))
	mux.GET(cfg.prefix+"/favicons/*favicon", serveFavicons(cfg, errs))
	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))
	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))
	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))
	mux.GET(cfg.prefix+"/santa/assets/*asset", serveAssets(cfg, errs))
}
