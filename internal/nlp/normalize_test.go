package nlp

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"lowercases", "Need HELP", "need help"},
		{"strips punctuation", "Hello, world! (really?) yes; no: a-b.", "hello world really yes no a b"},
		{"persian question mark", "چطور؟", "چطور"},
		{"collapses whitespace", "  need \t  cleaning\n now ", "need cleaning now"},
		{"information separators are whitespace", "\x1cneed\x1dcleaning\x1f", "need cleaning"},
		{"non-breaking and ideographic spaces", "need\u00a0cleaning\u3000now", "need cleaning now"},
		{"zero width non-joiner becomes space", "ثبت\u200cنام", "ثبت نام"},
		{"zero width joiner becomes space", "اسباب\u200dکشی", "اسباب کشی"},
		{"arabic kaf and yeh unified", "كي", "کی"},
		{"swedish letters survive", "STÄDNING Åt Öst", "städning åt öst"},
		{"invalid utf8 dropped", "need\xffhelp", "needhelp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)
	inputs := []string{"ثبت\u200cنام كردن؟", "Jag behöver HJÄLP!!", "a  -  b"}
	for i := 0; i < 50; i++ {
		inputs = append(inputs, faker.Sentence(8), faker.Question(), faker.HipsterSentence(5))
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_Concurrent(t *testing.T) {
	done := make(chan string, 20)
	for i := 0; i < 20; i++ {
		go func() { done <- Normalize("Need, HELP with ثبت\u200cنام!") }()
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "need help with ثبت نام", <-done)
	}
}
