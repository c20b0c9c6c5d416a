package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var answerSchema = MustSchema(
	Text("thinking", "Your step by step thinking."),
	Text("answer", "A single letter, A, B, C or D."),
)

func TestSchema_ValidateAcceptsDeclaredFields(t *testing.T) {
	res, err := answerSchema.Validate([]byte(`{"thinking": "2+2=4", "answer": "B"}`))
	require.NoError(t, err)

	assert.Equal(t, "B", res.String("answer"))
	assert.Equal(t, "2+2=4", res.String("thinking"))
	assert.Equal(t, []string{"thinking", "answer"}, res.Names())
}

func TestSchema_ValidateIgnoresExtraFields(t *testing.T) {
	res, err := answerSchema.Validate([]byte(`{"thinking": "t", "answer": "C", "confidence": 0.9}`))
	require.NoError(t, err)
	_, ok := res.Get("confidence")
	assert.False(t, ok)
}

func TestSchema_ValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing field", `{"thinking": "t"}`},
		{"wrong type", `{"thinking": "t", "answer": 3}`},
		{"null field", `{"thinking": "t", "answer": null}`},
		{"not an object", `["A"]`},
		{"not JSON", `The answer is A.`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := answerSchema.Validate([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestSchema_TypedFields(t *testing.T) {
	s := MustSchema(
		Number("score", "A score."),
		Bool("correct", "Whether it is correct."),
	)

	res, err := s.Validate([]byte(`{"score": 7, "correct": true}`))
	require.NoError(t, err)

	score, ok := res.Get("score")
	require.True(t, ok)
	assert.Equal(t, 7.0, score)
	assert.Equal(t, "7", res.String("score"))
	assert.Equal(t, "true", res.String("correct"))

	_, err = s.Validate([]byte(`{"score": "7", "correct": true}`))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSchema_QuotedFieldNames(t *testing.T) {
	s := MustSchema(Text("final answer", "Answer with spaces in the key."))
	res, err := s.Validate([]byte(`{"final answer": "D"}`))
	require.NoError(t, err)
	assert.Equal(t, "D", res.String("final answer"))
}

func TestNewSchema_Invalid(t *testing.T) {
	_, err := NewSchema()
	assert.Error(t, err)

	_, err = NewSchema(Text("", "no name"))
	assert.Error(t, err)

	_, err = NewSchema(Text("a", "x"), Text("a", "y"))
	assert.Error(t, err)

	assert.Panics(t, func() { MustSchema() })
}

func TestSchema_Descriptions(t *testing.T) {
	assert.Equal(t, map[string]string{
		"thinking": "Your step by step thinking.",
		"answer":   "A single letter, A, B, C or D.",
	}, answerSchema.Descriptions())
}

func TestSchema_Instructions(t *testing.T) {
	got := answerSchema.Instructions()
	assert.Contains(t, got, `"thinking" (string): Your step by step thinking.`)
	assert.Contains(t, got, `"answer" (string): A single letter, A, B, C or D.`)
}

func TestParseFieldType(t *testing.T) {
	for in, want := range map[string]FieldType{"": StringField, "string": StringField, "Number": NumberField, "bool": BooleanField, "boolean": BooleanField} {
		got, err := ParseFieldType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFieldType("object")
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, string(extractJSON("```json\n{\"a\": 1}\n```")))
	assert.Equal(t, `{"a": {"b": 2}}`, string(extractJSON(`Sure: {"a": {"b": 2}} done`)))
	assert.Equal(t, `no json`, string(extractJSON("  no json ")))
}
