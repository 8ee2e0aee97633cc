package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestErrorMapsWrappedSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: conversation", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: not a participant", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: invalid token", ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: empty content", ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: email", ErrAlreadyExists), http.StatusConflict},
		{fmt.Errorf("%w: slow down", ErrTooManyRequests), http.StatusTooManyRequests},
		{errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("Error(%v) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("near \"SELEC\": syntax error"))

	var body APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Fatal("success = true on error response")
	}
	if body.Error != ErrInternal.Error() {
		t.Fatalf("error = %q, want %q", body.Error, ErrInternal.Error())
	}
}

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"unread_count": 3})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data["unread_count"] != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
}
