package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidDocument(t *testing.T) {
	raw := []byte(`{
		"versions": [
			{"id":"PythonCore-3.13-64","company":"PythonCore","tag":"3.13-64",
			 "sort-version":"3.13.1","install-for":["3.13-64","3.13"],
			 "url":"https://example.test/py.zip","hash":{"sha256":"abc"}}
		]
	}`)
	doc, err := Parse(raw)
	require.NoError(t, err)
	assert.Len(t, doc.Versions, 1)
	assert.Equal(t, "PythonCore-3.13-64", doc.Versions[0].ID)
}

func TestParseMissingVersionsIsError(t *testing.T) {
	_, err := Parse([]byte(`{"next":"https://example.test/page2"}`))
	require.Error(t, err)
}

func TestParseMissingRequiredFieldIsError(t *testing.T) {
	raw := []byte(`{"versions":[{"id":"x"}]}`)
	_, err := Parse(raw)
	require.Error(t, err)
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	a := Entry{ID: "x", SortVersion: "1.0", URL: "https://first"}
	b := Entry{ID: "x", SortVersion: "1.0", URL: "https://second"}
	out := Dedupe([]Entry{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "https://first", out[0].URL)
}

func TestEntryUnknownKeysPreserved(t *testing.T) {
	raw := []byte(`{"id":"x","company":"PythonCore","tag":"3.13-64",
		"sort-version":"3.13.1","install-for":["3.13-64"],
		"url":"https://example.test/py.zip","extra-field":"kept"}`)
	var e Entry
	require.NoError(t, json.Unmarshal(raw, &e))
	require.Contains(t, e.Unknown, "extra-field")
}
