/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Secret Santa pages.
//
// Nothing is stored server-side: every page reads the session from its own
// query string, and every action answers with a redirect to the page for
// the new session. The organizer page lists participants and, once drawn,
// hands out one private gift link per giver plus a group link where each
// participant picks their own name.
//
// Routes, relative to the mount path:
//   - ""                   organizer page
//   - /add, /remove        roster edits, which discard any draw
//   - /generate            draw assignments
//   - /reset               clear everything, after confirmation
//   - /view                participant name picker
//   - /view/confirm        "is this you?" step
//   - /view/reveal         the selected participant's assignment
//   - /gift/:token         single-assignment link
//   - /qr, /gift/:token/qr PNG QR codes of the links above
//   - /ws                  websocket command channel

package main

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/Seednode/santabox/santa"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	paramConfirm = "confirm"
	paramName    = "name"
	paramNotice  = "notice"
	paramState   = "state"
)

type participantEntry struct {
	Name   string
	Remove template.URL
}

type shareLink struct {
	Giver string
	Link  string
	QR    template.URL
}

type pageData struct {
	Title   string
	Prefix  string
	Favicon template.HTML
	Notice  string

	Session santa.Session
	State   string

	Participants    []participantEntry
	MinParticipants int
	Generated       bool
	Ready           bool
	Shares          []shareLink
	ViewLink        string
	ViewQR          template.URL

	Assignment santa.Assignment
	Found      bool

	Home     template.URL
	Generate template.URL
	Reset    template.URL
	Proceed  template.URL
	Cancel   template.URL
}

func newPageData(cfg *Config, title string) pageData {
	return pageData{
		Title:           title,
		Prefix:          cfg.prefix,
		Favicon:         template.HTML(getFavicon(cfg)),
		MinParticipants: santa.MinParticipants,
		Home:            template.URL(cfg.prefix + "/santa"),
	}
}

// stateURL builds route?<session>[&key=value...]. Extra pairs with an
// empty value are skipped.
func stateURL(cfg *Config, route string, s santa.Session, extra ...string) string {
	q := santa.Encode(s)

	for i := 0; i+1 < len(extra); i += 2 {
		if extra[i+1] == "" {
			continue
		}
		if q != "" {
			q += "&"
		}
		q += url.QueryEscape(extra[i]) + "=" + url.QueryEscape(extra[i+1])
	}

	if q == "" {
		return cfg.prefix + route
	}

	return cfg.prefix + route + "?" + q
}

// requestSession decodes the session a request carries, either as its own
// query or packed into a single state parameter by a form. Fields that fail
// to decode come back empty.
func requestSession(cfg *Config, r *http.Request) santa.Session {
	q := r.URL.Query()

	raw := r.URL.RawQuery
	if q.Has(paramState) {
		raw = q.Get(paramState)
	}

	s, err := santa.Decode(raw)
	if err != nil {
		recordDecodeFailure(err)
		logf(cfg, "SANTA: Discarding malformed state from %s: %v", realIP(r), err)
	}

	if q.Has(paramState) && q.Has(santa.ParamSelected) {
		s.Select(q.Get(santa.ParamSelected))
	}

	return s
}

func noticeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, santa.ErrEmptyName):
		return "Enter a participant name."
	case errors.Is(err, santa.ErrInvalidName):
		return "That name contains characters that cannot be used."
	case errors.Is(err, santa.ErrDuplicateParticipant):
		return "That name is already on the list."
	case errors.Is(err, santa.ErrTooFewParticipants):
		return "Add at least 3 participants to generate assignments."
	case errors.Is(err, santa.ErrGenerationFailed):
		return "Could not generate valid assignments. Please try again."
	default:
		return err.Error()
	}
}

func tooManyNotice(cfg *Config, s santa.Session) string {
	if len(s.Participants) >= cfg.maxParticipants {
		return "This draw is full. Remove someone before adding more participants."
	}
	return ""
}

func render(cfg *Config, w http.ResponseWriter, status int, name string, data pageData) error {
	var buf bytes.Buffer

	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(newPage(cfg, "Server Error", "An error has occurred. Please try again.")))

		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	noStore(w)
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	_, err := buf.WriteTo(w)

	return err
}

func seeOther(cfg *Config, w http.ResponseWriter, r *http.Request, target string) {
	noStore(w)
	securityHeaders(cfg, w)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func serveOrganizer(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)

		data := newPageData(cfg, "Secret Santa Organizer")
		data.Notice = r.URL.Query().Get(paramNotice)
		data.Session = s
		data.State = santa.Encode(s)
		data.Generated = len(s.Assignments) > 0
		data.Ready = s.Ready()
		data.Generate = template.URL(stateURL(cfg, "/santa/generate", s))
		data.Reset = template.URL(stateURL(cfg, "/santa/reset", s))

		for _, p := range s.Participants {
			data.Participants = append(data.Participants, participantEntry{
				Name:   p,
				Remove: template.URL(stateURL(cfg, "/santa/remove", s, paramName, p)),
			})
		}

		if data.Generated {
			viewer := s.Viewer()
			data.ViewLink = origin(cfg, r) + stateURL(cfg, "/santa/view", viewer)
			data.ViewQR = template.URL(stateURL(cfg, "/santa/qr", viewer))

			for _, a := range s.Assignments {
				gift := cfg.prefix + "/santa/gift/" + santa.EncodeToken(a)
				data.Shares = append(data.Shares, shareLink{
					Giver: a.Giver,
					Link:  origin(cfg, r) + gift,
					QR:    template.URL(gift + "/qr"),
				})
			}
		}

		if err := render(cfg, w, http.StatusOK, "organizer", data); err != nil {
			errs <- err
		}
	}
}

func serveAdd(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)
		name := r.URL.Query().Get(paramName)

		notice := tooManyNotice(cfg, s)
		if notice == "" {
			err := s.AddParticipant(name)
			notice = noticeFor(err)
			if err == nil {
				logf(cfg, "SANTA: Added participant (%d total) for %s", len(s.Participants), realIP(r))
			}
		}

		seeOther(cfg, w, r, stateURL(cfg, "/santa", s, paramNotice, notice))
	}
}

func serveRemove(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)

		s.RemoveParticipant(r.URL.Query().Get(paramName))

		seeOther(cfg, w, r, stateURL(cfg, "/santa", s))
	}
}

func serveGenerate(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)

		err := s.Generate(cfg.rand())
		recordGeneration(err)
		if err == nil {
			logf(cfg, "SANTA: Generated %d assignments for %s", len(s.Assignments), realIP(r))
		} else {
			logf(cfg, "SANTA: Generation failed for %s: %v", realIP(r), err)
		}

		seeOther(cfg, w, r, stateURL(cfg, "/santa", s, paramNotice, noticeFor(err)))
	}
}

func serveReset(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)

		if r.URL.Query().Get(paramConfirm) == "yes" {
			s.Reset()
			seeOther(cfg, w, r, stateURL(cfg, "/santa", s))

			return
		}

		data := newPageData(cfg, "Reset everything?")
		data.Session = s
		data.Proceed = template.URL(stateURL(cfg, "/santa/reset", s, paramConfirm, "yes"))
		data.Cancel = template.URL(stateURL(cfg, "/santa", s))

		if err := render(cfg, w, http.StatusOK, "reset", data); err != nil {
			errs <- err
		}
	}
}

func serveView(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)

		if s.Selected != "" {
			seeOther(cfg, w, r, stateURL(cfg, "/santa/view/confirm", s))

			return
		}

		data := newPageData(cfg, "Secret Santa")
		data.Session = s
		data.State = santa.Encode(s)
		data.Generated = len(s.Assignments) > 0

		if err := render(cfg, w, http.StatusOK, "view", data); err != nil {
			errs <- err
		}
	}
}

func serveConfirm(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)

		if s.Selected == "" {
			seeOther(cfg, w, r, stateURL(cfg, "/santa/view", s.Viewer()))

			return
		}

		data := newPageData(cfg, "Is this you?")
		data.Session = s
		data.Proceed = template.URL(stateURL(cfg, "/santa/view/reveal", s))
		data.Cancel = template.URL(stateURL(cfg, "/santa/view", s.Viewer()))

		if err := render(cfg, w, http.StatusOK, "confirm", data); err != nil {
			errs <- err
		}
	}
}

func serveReveal(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)

		if s.Selected == "" {
			seeOther(cfg, w, r, stateURL(cfg, "/santa/view", s.Viewer()))

			return
		}

		data := newPageData(cfg, "Your Secret Santa")
		data.Session = s
		data.Assignment, data.Found = s.Lookup()
		data.Cancel = template.URL(stateURL(cfg, "/santa/view", s.Viewer()))

		status := http.StatusOK
		if !data.Found {
			status = http.StatusNotFound
		}

		if err := render(cfg, w, status, "reveal", data); err != nil {
			errs <- err
		}
	}
}

func serveGift(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := newPageData(cfg, "Your Secret Santa")

		a, err := santa.DecodeToken(p.ByName("token"))
		if err != nil {
			decodeFailuresTotal.WithLabelValues("token").Inc()
			logf(cfg, "SANTA: Invalid gift token from %s: %v", realIP(r), err)
		}
		data.Assignment, data.Found = a, err == nil

		status := http.StatusOK
		if !data.Found {
			status = http.StatusBadRequest
		}

		if err := render(cfg, w, status, "reveal", data); err != nil {
			errs <- err
		}
	}
}

func writeQR(cfg *Config, w http.ResponseWriter, link string, errs chan<- error) {
	png, err := qrcode.Encode(link, qrcode.Medium, cfg.qrSize)
	if err != nil {
		png, err = qrcode.Encode(link, qrcode.Low, cfg.qrSize)
	}
	if err != nil {
		http.Error(w, "link is too long for a qr code", http.StatusUnprocessableEntity)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	noStore(w)
	securityHeaders(cfg, w)

	if _, err := w.Write(png); err != nil {
		errs <- err
	}
}

func serveViewQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s := requestSession(cfg, r)
		if len(s.Participants) == 0 {
			http.Error(w, "missing participants", http.StatusBadRequest)

			return
		}

		writeQR(cfg, w, origin(cfg, r)+stateURL(cfg, "/santa/view", s.Viewer()), errs)
	}
}

func serveGiftQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		token := p.ByName("token")
		if _, err := santa.DecodeToken(token); err != nil {
			http.Error(w, "invalid gift token", http.StatusBadRequest)

			return
		}

		writeQR(cfg, w, origin(cfg, r)+cfg.prefix+"/santa/gift/"+token, errs)
	}
}

func registerSanta(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) {
	route := func(p string, h httprouter.Handle) {
		mux.GET(cfg.prefix+path+p, metered(path+p, h))
	}

	route("", serveOrganizer(cfg, errs))
	route("/add", serveAdd(cfg))
	route("/remove", serveRemove(cfg))
	route("/generate", serveGenerate(cfg))
	route("/reset", serveReset(cfg, errs))

	route("/view", serveView(cfg, errs))
	route("/view/confirm", serveConfirm(cfg, errs))
	route("/view/reveal", serveReveal(cfg, errs))

	route("/gift/:token", serveGift(cfg, errs))
	route("/gift/:token/qr", serveGiftQR(cfg, errs))
	route("/qr", serveViewQR(cfg, errs))

	// Upgrades need the raw ResponseWriter, so the socket is not metered.
	mux.GET(cfg.prefix+path+"/ws", serveSocket(cfg))
}
