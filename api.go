/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/sizeconv/units"
)

type ConvertResponse struct {
	Value  float64 `json:"value"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
	Bytes  float64 `json:"bytes"`
	Text   string  `json:"text"`
}

type UnitResponse struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any, errs chan<- error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs <- err
	}
}

// serveConvert answers GET /api/convert?value=1&from=GB&to=MB. Missing units
// fall back to the configured defaults.
func serveConvert(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		q := r.URL.Query()

		from, to := cfg.fromUnit, cfg.toUnit

		var err error
		if name := q.Get("from"); name != "" {
			from, err = units.ParseUnit(name)
		}
		if name := q.Get("to"); err == nil && name != "" {
			to, err = units.ParseUnit(name)
		}

		var res units.Result
		if err == nil {
			res, err = units.ConvertString(q.Get("value"), from, to)
		}

		switch {
		case errors.Is(err, units.ErrInvalidInput), errors.Is(err, units.ErrUnknownUnit):
			writeJSON(cfg, w, http.StatusBadRequest, ErrorResponse{Error: err.Error()}, errs)

			return
		case err != nil:
			writeJSON(cfg, w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()}, errs)

			return
		}

		writeJSON(cfg, w, http.StatusOK, ConvertResponse{
			Value:  res.Request.Value,
			From:   res.From.String(),
			To:     res.To.String(),
			Result: res.Value,
			Bytes:  res.Request.Value * res.From.Multiplier(),
			Text:   res.Format(cfg.precision),
		}, errs)

		logf(cfg, "API: Converted %s for %s in %s",
			res.Format(cfg.precision),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveUnits(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		all := units.All()

		resp := make([]UnitResponse, 0, len(all))
		for _, u := range all {
			resp = append(resp, UnitResponse{Name: u.String(), Multiplier: u.Multiplier()})
		}

		writeJSON(cfg, w, http.StatusOK, resp, errs)
	}
}

func registerAPI(cfg *Config, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/api/convert", serveConvert(cfg, errs))
	mux.GET(cfg.prefix+"/api/units", serveUnits(cfg, errs))
}
