package sitedata

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeTotal(t *testing.T) {
	inputs := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"empty object", map[string]any{}},
		{"string", "hello"},
		{"number", 42.0},
		{"array", []any{1.0, 2.0}},
		{"bool", true},
		{"wrong-typed sections", map[string]any{
			"news":        "not an array",
			"live":        []any{"not", "an", "object"},
			"discography": 7.0,
			"profile":     nil,
			"ticket":      map[string]any{"fields": "nope"},
		}},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			doc := Normalize(tt.input)

			if _, ok := doc["news"].([]any); !ok {
				t.Errorf("news is not an array: %T", doc["news"])
			}
			live, ok := doc["live"].(map[string]any)
			if !ok {
				t.Fatalf("live is not an object: %T", doc["live"])
			}
			if _, ok := live["upcoming"].([]any); !ok {
				t.Errorf("live.upcoming is not an array: %T", live["upcoming"])
			}
			if _, ok := live["past"].([]any); !ok {
				t.Errorf("live.past is not an array: %T", live["past"])
			}
			ticket, ok := doc["ticket"].(map[string]any)
			if !ok {
				t.Fatalf("ticket is not an object: %T", doc["ticket"])
			}
			fields, ok := ticket["fields"].(map[string]any)
			if !ok {
				t.Fatalf("ticket.fields is not an object: %T", ticket["fields"])
			}
			if fields["showQuantity"] != true {
				t.Errorf("ticket.fields.showQuantity = %v, want true", fields["showQuantity"])
			}
			for _, key := range []string{"discography", "profile", "youtube", "site", "contact"} {
				if _, ok := doc[key].(map[string]any); !ok {
					t.Errorf("%s is not an object: %T", key, doc[key])
				}
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	input := map[string]any{
		"news": []any{map[string]any{"id": "news-1", "title": "hello"}},
		"live": map[string]any{
			"ticketLink": "https://example.com/tickets",
			"upcoming":   []any{map[string]any{"id": "live-1", "venue": "下北沢XXX"}},
		},
		"extra": map[string]any{"custom": true},
	}

	once := Normalize(input)
	twice := Normalize(map[string]any(once))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalize is not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestNormalizeJSONRoundTrip(t *testing.T) {
	input := map[string]any{
		"news":    []any{map[string]any{"id": "n1", "title": "タイトル"}},
		"profile": map[string]any{"text": "hi", "links": []any{map[string]any{"name": "X", "url": "https://x.com/a"}}},
		"ticket":  map[string]any{"fields": map[string]any{"showQuantity": false}},
	}

	normalized := Normalize(input)
	raw, err := json.Marshal(normalized)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(Normalize(decoded), normalized) {
		t.Error("document changed across a JSON round-trip")
	}

	// Explicit false survives; it must not be bumped back to the default.
	fields := normalized["ticket"].(map[string]any)["fields"].(map[string]any)
	if fields["showQuantity"] != false {
		t.Errorf("showQuantity = %v, want false", fields["showQuantity"])
	}
}

func TestNormalizeKeepsUnknownFields(t *testing.T) {
	doc := Normalize(map[string]any{
		"experimental": map[string]any{"flag": true},
		"news":         []any{},
	})
	extra, ok := doc["experimental"].(map[string]any)
	if !ok || extra["flag"] != true {
		t.Errorf("unknown field was not passed through: %#v", doc["experimental"])
	}
}

func TestNormalizeEmptyInputDefaults(t *testing.T) {
	doc := Normalize(map[string]any{})

	if news := doc["news"].([]any); len(news) != 0 {
		t.Errorf("news = %v, want []", news)
	}
	live := doc["live"].(map[string]any)
	if upcoming := live["upcoming"].([]any); len(upcoming) != 0 {
		t.Errorf("live.upcoming = %v, want []", upcoming)
	}
	fields := doc["ticket"].(map[string]any)["fields"].(map[string]any)
	if fields["showQuantity"] != true {
		t.Errorf("ticket.fields.showQuantity = %v, want true", fields["showQuantity"])
	}
	contact := doc["contact"].(map[string]any)
	if contact["formAction"] == "" {
		t.Error("contact.formAction default is empty")
	}
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	input := map[string]any{
		"live": map[string]any{"upcoming": []any{map[string]any{"id": "live-1"}}},
	}
	doc := Normalize(input)

	// Mutating the input afterwards must not leak into the document.
	input["live"].(map[string]any)["upcoming"].([]any)[0].(map[string]any)["id"] = "mutated"

	ev, _ := FindLive(doc, "live-1")
	if ev == nil {
		t.Fatal("live-1 not found after input mutation")
	}
}

func TestFindLive(t *testing.T) {
	doc := Normalize(map[string]any{
		"live": map[string]any{
			"upcoming": []any{
				map[string]any{"id": "live-1", "date": "2025.03.01", "venue": "下北沢XXX", "description": "open 18:00"},
			},
			"past": []any{
				map[string]any{"id": "live-0", "date": "2024.12.24", "venue": "新代田FEVER"},
			},
		},
	})

	ev, upcoming := FindLive(doc, "live-1")
	if ev == nil || !upcoming {
		t.Fatalf("FindLive(live-1) = %v, %v; want event, true", ev, upcoming)
	}
	if ev.Venue != "下北沢XXX" || ev.Date != "2025.03.01" {
		t.Errorf("unexpected event: %+v", ev)
	}

	ev, upcoming = FindLive(doc, "live-0")
	if ev == nil || upcoming {
		t.Fatalf("FindLive(live-0) = %v, %v; want event, false", ev, upcoming)
	}

	if ev, _ := FindLive(doc, "missing"); ev != nil {
		t.Errorf("FindLive(missing) = %+v, want nil", ev)
	}
}
