package httpjson

import (
	"encoding/json"
	"net/http"
)

// MaxBody caps JSON request bodies.
const MaxBody = 1 << 20

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Read(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, errorBody{Success: false, Error: msg})
}
