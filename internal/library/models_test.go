package library

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseKeywords(t *testing.T) {
	got := ParseKeywords(" go, testing ,, ,state machines,")
	want := []string{"go", "testing", "state machines"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseKeywords() = %v, want %v", got, want)
	}
	if got := ParseKeywords(""); got != nil {
		t.Errorf("ParseKeywords(\"\") = %v, want nil", got)
	}
}

func TestVideoContext_Normalize(t *testing.T) {
	c := VideoContext{}
	if err := c.Normalize(); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if c.ContentType != ContentTypeEducational {
		t.Errorf("default content type = %q", c.ContentType)
	}

	c = VideoContext{ContentType: "Product Review"}
	if err := c.Normalize(); err != nil || c.ContentType != ContentTypeProductReview {
		t.Errorf("Normalize(Product Review) = %q, %v", c.ContentType, err)
	}

	c = VideoContext{ContentType: "podcast"}
	if err := c.Normalize(); !errors.Is(err, ErrInvalidContentType) {
		t.Errorf("Normalize(podcast) error = %v", err)
	}
}

func TestDuration_JSON(t *testing.T) {
	b, _ := json.Marshal(struct {
		D Duration `json:"d"`
	}{0})
	if string(b) != `{"d":"Unknown"}` {
		t.Errorf("unknown duration = %s", b)
	}

	b, _ = json.Marshal(struct {
		D Duration `json:"d"`
	}{245})
	if string(b) != `{"d":245}` {
		t.Errorf("known duration = %s", b)
	}

	var v struct {
		D Duration `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"Unknown"}`), &v); err != nil || v.D != 0 {
		t.Errorf("unmarshal Unknown = %v, %v", v.D, err)
	}
	if err := json.Unmarshal([]byte(`{"d":90.5}`), &v); err != nil || v.D != 90.5 {
		t.Errorf("unmarshal 90.5 = %v, %v", v.D, err)
	}
}

func TestShort_ValidateAndSync(t *testing.T) {
	s := Short{TrimStart: 83, TrimEnd: 101}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	s.SyncDisplay()
	if s.Timestamp != "1:23" || s.Duration != "0:18" {
		t.Errorf("SyncDisplay() = %s @ %s", s.Duration, s.Timestamp)
	}

	for _, bad := range []Short{{TrimStart: 5, TrimEnd: 5}, {TrimStart: 9, TrimEnd: 2}, {TrimStart: -1, TrimEnd: 2}} {
		if err := bad.Validate(); !errors.Is(err, ErrInvalidTrim) {
			t.Errorf("Validate(%v-%v) error = %v", bad.TrimStart, bad.TrimEnd, err)
		}
	}
}
