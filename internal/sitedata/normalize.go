// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sitedata

// fieldKind classifies a schema field for the normalization merge.
type fieldKind int

const (
	kindString fieldKind = iota
	kindBool
	kindArray
	kindObject
)

// fieldSpec describes one recognized field: its key, expected kind, default
// value, and (for objects) the nested fields. The whole document schema is
// this table; Normalize walks it instead of hand-written per-field checks.
type fieldSpec struct {
	key      string
	kind     fieldKind
	def      any
	children []fieldSpec
}

var documentSchema = []fieldSpec{
	{key: "news", kind: kindArray},
	{key: "live", kind: kindObject, children: []fieldSpec{
		{key: "ticketLink", kind: kindString, def: ""},
		{key: "upcoming", kind: kindArray},
		{key: "past", kind: kindArray},
	}},
	{key: "discography", kind: kindObject, children: []fieldSpec{
		{key: "digital", kind: kindArray},
		{key: "demo", kind: kindArray},
	}},
	{key: "profile", kind: kindObject, children: []fieldSpec{
		{key: "image", kind: kindString, def: ""},
		{key: "text", kind: kindString, def: ""},
		{key: "links", kind: kindArray},
	}},
	{key: "youtube", kind: kindObject, children: []fieldSpec{
		{key: "channelUrl", kind: kindString, def: "https://www.youtube.com/@1212____ki"},
		{key: "musicVideos", kind: kindArray},
		{key: "liveMovies", kind: kindArray},
		{key: "demos", kind: kindArray},
	}},
	{key: "site", kind: kindObject, children: []fieldSpec{
		{key: "heroImage", kind: kindString, def: "assets/images/hero.jpg"},
		{key: "links", kind: kindObject, children: []fieldSpec{
			{key: "bandcamp", kind: kindString, def: "https://1212ki.bandcamp.com/"},
			{key: "youtube", kind: kindString, def: "https://www.youtube.com/@1212____ki"},
			{key: "x", kind: kindString, def: "https://www.x.com/1212____ki"},
		}},
		{key: "footerText", kind: kindString, def: "© 2025 松本一樹 -itsuki matsumoto-. All rights reserved."},
	}},
	{key: "ticket", kind: kindObject, children: []fieldSpec{
		{key: "introText", kind: kindString, def: "ライブを選択して、必要事項を入力してください。"},
		{key: "noticeText", kind: kindString, def: "送信後、こちらからの自動返信はありません（受付の記録のみ）。"},
		{key: "completeText", kind: kindString, def: "予約しました。こちらからの自動返信はありません（受付の記録のみ）。"},
		{key: "fields", kind: kindObject, children: []fieldSpec{
			{key: "showQuantity", kind: kindBool, def: true},
			{key: "showMessage", kind: kindBool, def: true},
			{key: "labelQuantity", kind: kindString, def: "枚数"},
			{key: "labelMessage", kind: kindString, def: "備考"},
			{key: "placeholderMessage", kind: kindString, def: "例: 取り置き名義が別の場合など"},
			{key: "submitLabel", kind: kindString, def: "予約する"},
		}},
	}},
	{key: "contact", kind: kindObject, children: []fieldSpec{
		{key: "introText", kind: kindString, def: "お問い合わせは以下のフォームに必要事項をご入力の上、送信してください。"},
		{key: "formAction", kind: kindString, def: "https://formspree.io/f/xqaeddgj"},
	}},
}

// Normalize turns arbitrary JSON-shaped input into a fully-shaped document.
// Every recognized field is present afterwards: present values of the
// expected kind are kept (objects recursively), anything else is replaced
// with the schema default. Unknown extra fields pass through unchanged.
// Normalize never panics and is idempotent.
func Normalize(input any) Document {
	root, _ := input.(map[string]any)
	if root == nil {
		if d, ok := input.(Document); ok {
			root = map[string]any(d)
		}
	}
	return Document(normalizeObject(root, documentSchema))
}

func normalizeObject(in map[string]any, schema []fieldSpec) map[string]any {
	out := make(map[string]any, len(schema))
	// Unknown fields first, so schema fields below win on key collision.
	for k, v := range in {
		if !schemaHas(schema, k) {
			out[k] = deepClone(v)
		}
	}
	for _, spec := range schema {
		out[spec.key] = normalizeField(in[spec.key], spec)
	}
	return out
}

func normalizeField(v any, spec fieldSpec) any {
	switch spec.kind {
	case kindObject:
		obj, _ := v.(map[string]any)
		return normalizeObject(obj, spec.children)
	case kindArray:
		if arr, ok := v.([]any); ok {
			return deepClone(arr)
		}
		return []any{}
	case kindBool:
		if b, ok := v.(bool); ok {
			return b
		}
		return spec.def
	default: // kindString: empty and wrong-typed values fall back to the default
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		return spec.def
	}
}

func schemaHas(schema []fieldSpec, key string) bool {
	for _, spec := range schema {
		if spec.key == key {
			return true
		}
	}
	return false
}
