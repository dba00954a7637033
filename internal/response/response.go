// Package response renders every body the API sends in one envelope:
//
//	{success, message, data?, pagination?, errors?, timestamp}
package response

import (
	"encoding/json"
	"net/http"
	"time"

	"example.com/notes-api/internal/errs"
	"example.com/notes-api/internal/notes"
)

// TimeFormat is ISO-8601 with millisecond precision in UTC.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Now is the envelope clock. Tests may replace it.
var Now = time.Now

type Envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       any               `json:"data,omitempty"`
	Pagination *notes.Pagination `json:"pagination,omitempty"`
	Errors     []errs.FieldError `json:"errors,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any, message string) {
	write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data any, message string) {
	write(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Paginated writes a 200 envelope carrying one page of notes.
func Paginated(w http.ResponseWriter, page notes.Page, message string) {
	p := page.Pagination
	write(w, http.StatusOK, Envelope{Success: true, Message: message, Data: page.Notes, Pagination: &p})
}

// Error renders err with the status its code maps to. Internal errors never
// expose their message or fields.
func Error(w http.ResponseWriter, err error) {
	code := errs.CodeOf(err)
	var fields []errs.FieldError
	if code != errs.Internal {
		fields = errs.FieldsOf(err)
	}
	Fail(w, errs.HTTPStatus(code), errs.MessageOf(err), fields)
}

// Fail writes an error envelope with an explicit status.
func Fail(w http.ResponseWriter, status int, message string, fields []errs.FieldError) {
	write(w, status, Envelope{Message: message, Errors: fields})
}

func write(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = Now().UTC().Format(TimeFormat)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
