package scenario

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeSekai(t *testing.T) {
	tests := []struct {
		name        string
		jsonData    string
		expectError error
		validate    func(*testing.T, *Document)
	}{
		{
			name: "full asset",
			jsonData: `{
				"TalkData": [
					{"WindowDisplayName": "一歌", "Body": "おはよう\nみんな", "WhenFinishCloseWindow": 1}
				],
				"SpecialEffectData": [
					{"EffectType": 8, "StringVal": "屋上", "StringValSub": "", "Duration": 0, "IntVal": 0},
					{"EffectType": 37, "StringVal": "", "IntVal": 12}
				],
				"Snippets": [
					{"Index": 0, "Action": 6, "ProgressBehavior": 1, "ReferenceIndex": 0, "Delay": 0},
					{"Index": 1, "Action": 1, "ProgressBehavior": 1, "ReferenceIndex": 0, "Delay": 0},
					{"Index": 5, "Action": 6, "ProgressBehavior": 1, "ReferenceIndex": 1, "Delay": 0}
				],
				"AppearCharacters": [
					{"Character2dId": 64, "CostumeType": "00001"}
				]
			}`,
			validate: func(t *testing.T, doc *Document) {
				if doc.Source != SourceSekai {
					t.Errorf("Expected sekai source, got %v", doc.Source)
				}
				if doc.IsPlaceholder() {
					t.Fatal("Expected structured document")
				}
				if len(doc.Talks) != 1 || doc.Talks[0].Speaker != "一歌" || doc.Talks[0].Body != "おはよう\nみんな" {
					t.Errorf("Unexpected talks: %+v", doc.Talks)
				}
				if len(doc.Effects) != 2 {
					t.Fatalf("Expected 2 effects, got %d", len(doc.Effects))
				}
				if doc.Effects[0].Type != EffectTelop || doc.Effects[0].Value != "屋上" {
					t.Errorf("Unexpected telop effect: %+v", doc.Effects[0])
				}
				if doc.Effects[1].Int == nil || *doc.Effects[1].Int != 12 {
					t.Errorf("Expected IntVal 12, got %v", doc.Effects[1].Int)
				}
				if doc.Effects[1].Secondary != nil {
					t.Errorf("Expected nil StringValSub when absent, got %q", *doc.Effects[1].Secondary)
				}
				if doc.Snippets[2].Sequence != 5 || doc.Snippets[2].Action != ActionSpecialEffect {
					t.Errorf("Unexpected snippet: %+v", doc.Snippets[2])
				}
				if len(doc.Characters) != 1 || doc.Characters[0].ModelID != 64 {
					t.Errorf("Unexpected characters: %+v", doc.Characters)
				}
			},
		},
		{
			name:     "placeholder string",
			jsonData: `"未能读取json文件"`,
			validate: func(t *testing.T, doc *Document) {
				if !doc.IsPlaceholder() {
					t.Fatal("Expected placeholder document")
				}
				if *doc.Placeholder != "未能读取json文件" {
					t.Errorf("Unexpected placeholder %q", *doc.Placeholder)
				}
			},
		},
		{
			name:        "missing snippets",
			jsonData:    `{"TalkData": [], "SpecialEffectData": [], "AppearCharacters": []}`,
			expectError: ErrMissingField,
		},
		{
			name: "snippet without reference",
			jsonData: `{"TalkData": [{"WindowDisplayName": "A", "Body": "x"}], "SpecialEffectData": [],
				"Snippets": [{"Index": 0, "Action": 1}], "AppearCharacters": []}`,
			expectError: ErrMissingField,
		},
		{
			name: "snippet without action",
			jsonData: `{"TalkData": [{"WindowDisplayName": "A", "Body": "x"}], "SpecialEffectData": [],
				"Snippets": [{"Index": 0, "ReferenceIndex": 0}], "AppearCharacters": []}`,
			expectError: ErrMissingField,
		},
		{
			name: "talk without body",
			jsonData: `{"TalkData": [{"WindowDisplayName": "A"}], "SpecialEffectData": [],
				"Snippets": [], "AppearCharacters": []}`,
			expectError: ErrMissingField,
		},
		{
			name: "effect without string value",
			jsonData: `{"TalkData": [], "SpecialEffectData": [{"EffectType": 8}],
				"Snippets": [], "AppearCharacters": []}`,
			expectError: ErrMissingField,
		},
		{
			name:     "empty tables are not missing",
			jsonData: `{"TalkData": [], "SpecialEffectData": [], "Snippets": [], "AppearCharacters": []}`,
			validate: func(t *testing.T, doc *Document) {
				if len(doc.Snippets) != 0 || doc.IsPlaceholder() {
					t.Errorf("Expected empty structured document, got %+v", doc)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeSekai([]byte(tt.jsonData))
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("Expected error %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.validate(t, doc)
		})
	}
}

func TestDecodeBestdori(t *testing.T) {
	tests := []struct {
		name        string
		jsonData    string
		expectError error
		validate    func(*testing.T, *Document)
	}{
		{
			name: "wrapped in Base",
			jsonData: `{"Base": {
				"talkData": [{"windowDisplayName": "香澄", "body": "キラキラ"}],
				"specialEffectData": [{"effectType": 7, "stringVal": "bg00012", "stringValSub": "bg00012_2"}],
				"snippets": [
					{"actionType": 6, "referenceIndex": 0},
					{"actionType": 1, "referenceIndex": 0}
				],
				"appearCharacters": [{"characterId": 1}, {"characterId": 2}]
			}}`,
			validate: func(t *testing.T, doc *Document) {
				if doc.Source != SourceBestdori {
					t.Errorf("Expected bestdori source, got %v", doc.Source)
				}
				if doc.Snippets[1].Sequence != 1 || doc.Snippets[1].Action != ActionTalk {
					t.Errorf("Expected positional sequence, got %+v", doc.Snippets[1])
				}
				if doc.Effects[0].Secondary == nil || *doc.Effects[0].Secondary != "bg00012_2" {
					t.Errorf("Expected stringValSub to be kept, got %v", doc.Effects[0].Secondary)
				}
				if doc.Characters[1].CharacterID != 2 {
					t.Errorf("Unexpected characters: %+v", doc.Characters)
				}
			},
		},
		{
			name: "unwrapped",
			jsonData: `{
				"talkData": [], "specialEffectData": [], "snippets": [], "appearCharacters": []
			}`,
			validate: func(t *testing.T, doc *Document) {
				if doc.IsPlaceholder() || len(doc.Talks) != 0 {
					t.Errorf("Unexpected document: %+v", doc)
				}
			},
		},
		{
			name: "snippet without referenceIndex",
			jsonData: `{"Base": {"talkData": [{"windowDisplayName": "A", "body": "x"}], "specialEffectData": [],
				"snippets": [{"actionType": 1}], "appearCharacters": []}}`,
			expectError: ErrMissingField,
		},
		{
			name: "talk without windowDisplayName",
			jsonData: `{"Base": {"talkData": [{"body": "x"}], "specialEffectData": [],
				"snippets": [], "appearCharacters": []}}`,
			expectError: ErrMissingField,
		},
		{
			name: "effect without effectType",
			jsonData: `{"Base": {"talkData": [], "specialEffectData": [{"stringVal": "bg"}],
				"snippets": [], "appearCharacters": []}}`,
			expectError: ErrMissingField,
		},
		{
			name:        "missing talkData",
			jsonData:    `{"Base": {"specialEffectData": [], "snippets": [], "appearCharacters": []}}`,
			expectError: ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeBestdori([]byte(tt.jsonData))
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("Expected error %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.validate(t, doc)
		})
	}
}

func TestDecode_UnknownSource(t *testing.T) {
	_, err := Decode(Source(9), []byte(`{}`))
	if !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Expected ErrUnknownShape, got %v", err)
	}
}

func TestParseSource(t *testing.T) {
	for name, want := range map[string]Source{
		"sekai":    SourceSekai,
		"pjsk":     SourceSekai,
		"bestdori": SourceBestdori,
		"bandori":  SourceBestdori,
	} {
		got, err := ParseSource(name)
		if err != nil || got != want {
			t.Errorf("ParseSource(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseSource("genshin"); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("Expected ErrUnknownShape, got %v", err)
	}
}

func TestKindNames(t *testing.T) {
	if EffectTelop.String() != "Telop" {
		t.Errorf("Expected Telop, got %s", EffectTelop)
	}
	if EffectBlur.String() != "Blur" {
		t.Errorf("Expected Blur, got %s", EffectBlur)
	}
	if EffectType(99).String() != "99" {
		t.Errorf("Expected raw number for unknown effect, got %s", EffectType(99))
	}
	if _, ok := EffectType(-1).Name(); ok {
		t.Error("Negative effect type should not be known")
	}
	if ActionSound.String() != "Sound" {
		t.Errorf("Expected Sound, got %s", ActionSound)
	}
	if ActionKind(8).String() != "8" {
		t.Errorf("Expected raw number for unknown action, got %s", ActionKind(8))
	}
}

func TestDecodeMissingFieldNamesRecord(t *testing.T) {
	_, err := DecodeBestdori([]byte(`{"Base": {"talkData": [], "specialEffectData": [],
		"snippets": [{"actionType": 1, "referenceIndex": 0}, {"actionType": 1}], "appearCharacters": []}}`))
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("Expected ErrMissingField, got %v", err)
	}
	if !strings.Contains(err.Error(), "snippets[1].referenceIndex") {
		t.Errorf("Expected error to name the record, got %q", err.Error())
	}
}
