package ocrspace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterText(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "aB3xYz", expect: "aB3xYz"},
		{input: " aB3 xYz\n", expect: "aB3xYz"},
		{input: "a*B-3_x?Y!z.", expect: "aB3xYz"},
		{input: "£€#@", expect: ""},
		{input: "", expect: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, FilterText(test.input))
	}
}
