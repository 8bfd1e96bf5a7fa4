package bind

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/testkit"
)

type species struct {
	Genus   string  `json:"genus" validate:"genus"`
	Percent float64 `json:"percent" validate:"gte=0,lte=100"`
}

type layer struct {
	Height  float64    `json:"height" validate:"min=0"`
	Species []*species `json:"species" validate:"max=2,dive"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestParseJSON_Success(t *testing.T) {
	got, err := ParseJSON[layer](post(`{"height":20.5,"species":[{"genus":"PL","percent":100}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Height != 20.5 || len(got.Species) != 1 || got.Species[0].Genus != "PL" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_JSONErrors(t *testing.T) {
	cases := map[string]struct {
		body string
		opts []Options
	}{
		"empty":         {body: "  "},
		"invalid":       {body: `{`},
		"unknown field": {body: `{"height":1,"crown":3}`},
		"too large":     {body: `{"height":20.5}`, opts: []Options{{MaxBytes: 5, DisallowUnknown: true}}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSON[layer](post(c.body), c.opts...)
			if !perr.IsCode(err, perr.ErrorCodeJSON) {
				t.Fatalf("err = %v (%v)", perr.CodeOf(err), err)
			}
		})
	}
}

func TestParseJSON_NotAStruct(t *testing.T) {
	if _, err := ParseJSON[int](post(`5`)); !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v", err)
	}
}

func TestParseJSON_UnknownAllowed(t *testing.T) {
	got, err := ParseJSON[layer](post(`{"height":3,"extra":"ok"}`), Options{DisallowUnknown: false})
	if err != nil || got.Height != 3 {
		t.Fatalf("got %+v, %v", got, err)
	}
}

func TestUnmarshal_TrailingData(t *testing.T) {
	testkit.Swap(t, &jsonMore, func(*json.Decoder) bool { return true })
	if _, err := Unmarshal[layer]([]byte(`{"height":1}`)); !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnmarshal_ValidationField(t *testing.T) {
	_, err := Unmarshal[layer]([]byte(`{"height":1,"species":[{"genus":"PL","percent":60},{"genus":"fx","percent":40}]}`))
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("err = %v", err)
	}
	e, _ := perr.As(err)
	if e.Field() != "species[1].genus" {
		t.Fatalf("field = %q", e.Field())
	}
	testkit.MustContain(t, err.Error(), "genus must be a one or two letter genus code")
}

func TestStruct_ShortMessages(t *testing.T) {
	type s struct {
		Count int `json:"count,omitempty" validate:"max=5"`
		Size  int `json:"-" validate:"min=1"`
		Plain int `validate:"min=0"`
	}
	err := Struct(s{Count: 6, Size: 1})
	if err == nil || err.Error() != "count must be at most 5" {
		t.Fatalf("max message: %v", err)
	}
	err = Struct(s{Count: 1})
	e, _ := perr.As(err)
	if e == nil || e.Field() != "Size" || e.Error() != "Size must be at least 1" {
		t.Fatalf("min message: %v", err)
	}
}

func TestIsGenus(t *testing.T) {
	type g struct {
		Genus string `json:"genus" validate:"genus"`
	}
	for _, ok := range []string{"C", "PL", "MB"} {
		if err := Struct(g{ok}); err != nil {
			t.Fatalf("%q: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "pl", "ABC", "P1"} {
		if err := Struct(g{bad}); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

func TestFieldAndMessage_Generic(t *testing.T) {
	field, msg := FieldAndMessage(errors.New("boom"))
	if field != "" || msg != "boom" {
		t.Fatalf("field=%q msg=%q", field, msg)
	}
	if f, m := FieldAndMessage(nil); f != "" || m != "" {
		t.Fatal("nil error")
	}
}
