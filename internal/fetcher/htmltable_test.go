package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const breakdownHTML = `<html><body>
<table id="other"><tr><td>ignore</td></tr></table>
<table id="breakdown">
  <tr><th colspan="3">Import Surcharges</th></tr>
  <tr><th>Description</th><th>Curr.</th><th>20STD</th><th>40STD</th></tr>
  <tr>
    <td>Terminal Handling Charge Dest.<br><span>per   container</span></td>
    <td> EUR </td><td>200</td><td>300</td>
  </tr>
  <tr>
    <td>Destination Landfreight<table><tr><td>nested</td></tr></table></td>
    <td></td><td></td><td></td>
  </tr>
</table>
</body></html>`

func TestReadHTMLTable(t *testing.T) {
	rows, err := ReadHTMLTable(strings.NewReader(breakdownHTML), "#breakdown")
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Import Surcharges"}, rows[0])
	assert.Equal(t, []string{"Description", "Curr.", "20STD", "40STD"}, rows[1])
	assert.Equal(t, []string{"Terminal Handling Charge Dest.\nper container", "EUR", "200", "300"}, rows[2])
	assert.Equal(t, "", rows[3][1])
	assert.Len(t, rows[3], 4)
}

func TestReadHTMLTable_DefaultSelector(t *testing.T) {
	rows, err := ReadHTMLTable(strings.NewReader(breakdownHTML), "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ignore"}}, rows)
}

func TestReadHTMLTable_NoTable(t *testing.T) {
	_, err := ReadHTMLTable(strings.NewReader("<p>nothing</p>"), "")
	assert.ErrorContains(t, err, "no table")
}
