package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected EntityResult
	}{
		{
			name:     "nothing to extract",
			message:  "nothing here",
			expected: EntityResult{},
		},
		{
			name:    "full english booking",
			message: "Need help mounting a TV in Stockholm tomorrow for 2 hours, budget 500 kr",
			expected: EntityResult{
				Location: strPtr("Stockholm"),
				Timing:   strPtr("tomorrow"),
				Budget:   strPtr("500 kr"),
				Hours:    intPtr(2),
			},
		},
		{
			name:     "swedish hours",
			message:  "3 timmar städning",
			expected: EntityResult{Hours: intPtr(3)},
		},
		{
			name:     "split swedish timing",
			message:  "2 rum i morgon",
			expected: EntityResult{Timing: strPtr("i morgon"), Rooms: intPtr(2)},
		},
		{
			name:     "items",
			message:  "5 items please",
			expected: EntityResult{Items: intPtr(5)},
		},
		{
			name:     "euro sign budget",
			message:  "100 € in Malmö",
			expected: EntityResult{Location: strPtr("Malmö"), Budget: strPtr("100 €")},
		},
		{
			name:     "currency keeps original case",
			message:  "200 USD tonight",
			expected: EntityResult{Timing: strPtr("tonight"), Budget: strPtr("200 USD")},
		},
		{
			name:     "case insensitive matches keep original text",
			message:  "STOCKHOLM TODAY",
			expected: EntityResult{Location: strPtr("STOCKHOLM"), Timing: strPtr("TODAY")},
		},
		{
			name:    "no space between count and unit",
			message: "2hrs and 3 rooms and 4 items budget 300kr",
			expected: EntityResult{
				Budget: strPtr("300 kr"),
				Hours:  intPtr(2),
				Items:  intPtr(4),
				Rooms:  intPtr(3),
			},
		},
		{
			name:     "first match wins",
			message:  "1 Bed, 2 rooms",
			expected: EntityResult{Rooms: intPtr(1)},
		},
		{
			name:     "persian digits",
			message:  "۳ ساعت",
			expected: EntityResult{Hours: intPtr(3)},
		},
		{
			name:     "persian digits and city",
			message:  "۴ اتاق در استکهلم",
			expected: EntityResult{Location: strPtr("استکهلم"), Rooms: intPtr(4)},
		},
		{
			name:     "persian budget is transliterated",
			message:  "۱۲۰۰ تومان فردا",
			expected: EntityResult{Timing: strPtr("فردا"), Budget: strPtr("1200 تومان")},
		},
		{
			name:     "overflowing count is dropped",
			message:  "99999999999999999999 hours",
			expected: EntityResult{},
		},
		{
			name:     "english morning is not swedish morgon",
			message:  "in the morning",
			expected: EntityResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEntities(tt.message)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractEntities_PersianAndASCIIDigitsAgree(t *testing.T) {
	assert.Equal(t, ExtractEntities("3 ساعت"), ExtractEntities("۳ ساعت"))
}

func TestEntityResult_Empty(t *testing.T) {
	assert.True(t, EntityResult{}.Empty())
	assert.False(t, EntityResult{Hours: intPtr(0)}.Empty())
}
