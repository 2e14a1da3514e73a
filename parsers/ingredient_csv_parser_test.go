package parsers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestParseIngredientCSV(t *testing.T) {
	in := "\xEF\xBB\xBFName,Amount,Unit,Type\n" +
		"Tomato,2,cups,produce\n" +
		"\"Olive oil, extra virgin\",1,tbsp\n" +
		",3,g\n" +
		"Salt,,to taste,\n"

	got, err := ParseIngredientCSV(strings.NewReader(in), "")
	require.NoError(t, err)

	want := []IngredientCSVRecord{
		{Name: "Tomato", Amount: "2", Unit: "cups", Type: "produce"},
		{Name: "Olive oil, extra virgin", Amount: "1", Unit: "tbsp"},
		{Name: "Salt", Unit: "to taste"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIngredientCSVWithIDColumn(t *testing.T) {
	in := "id,name,amount,unit\nline-1,Egg,2,\n"
	got, err := ParseIngredientCSV(strings.NewReader(in), "utf-8")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "line-1", got[0].ID)
}

func TestParseIngredientCSVShiftJIS(t *testing.T) {
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, japanese.ShiftJIS.NewEncoder())
	_, err := w.Write([]byte("name,amount,unit\n醤油,2,大さじ\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := ParseIngredientCSV(&buf, "shift_jis")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, IngredientCSVRecord{Name: "醤油", Amount: "2", Unit: "大さじ"}, got[0])
}

func TestParseIngredientCSVErrors(t *testing.T) {
	_, err := ParseIngredientCSV(strings.NewReader(""), "")
	assert.ErrorIs(t, err, ErrEmptyCSV)

	_, err = ParseIngredientCSV(strings.NewReader("name,qty\nx,1\n"), "")
	assert.ErrorContains(t, err, "required header not found: amount")

	_, err = ParseIngredientCSV(strings.NewReader("name,amount,unit\n"), "klingon")
	assert.ErrorContains(t, err, "unsupported charset")
}
