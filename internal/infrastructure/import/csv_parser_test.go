package csvimport

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_StripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("土地管理ID,漢字\n001,山田\n")...)

	p, err := ParseFromBytes(data)
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	assert.Equal(t, []string{"土地管理ID", "漢字"}, p.Headers())
	assert.True(t, p.HasHeader("土地管理ID"))
}

func TestCSVParser_EmptyFile(t *testing.T) {
	_, err := ParseFromBytes(nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestCSVParser_InvalidEncoding(t *testing.T) {
	// Shift-JIS bytes are not valid UTF-8
	_, err := ParseFromBytes([]byte{0x93, 0x8C, 0x8B, 0x9E})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestCSVParser_InvalidEncodingPastHead(t *testing.T) {
	// bad bytes beyond the initial peek window only surface when the
	// row containing them is read
	var buf bytes.Buffer
	buf.WriteString("id,name\n")
	for i := 0; i < 600; i++ {
		fmt.Fprintf(&buf, "%d,山田\n", i)
	}
	require.Greater(t, buf.Len(), 4096)
	lastLine := bytes.Count(buf.Bytes(), []byte{'\n'}) + 1
	buf.WriteString("601,")
	buf.Write([]byte{0x93, 0x8C, 0x8B, 0x9E})
	buf.WriteString("\n")

	p, err := ParseFromBytes(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	_, err = p.ReadAllRows()
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	assert.Contains(t, err.Error(), fmt.Sprintf("line %d", lastLine))
}

func TestCSVParser_RuneAcrossPeekBoundary(t *testing.T) {
	// a multi-byte rune straddling the peek window must not read as a
	// broken encoding
	var buf bytes.Buffer
	buf.WriteString("name\n")
	for buf.Len() < 4095 {
		buf.WriteByte('a')
	}
	buf.WriteString("山\n")

	p, err := ParseFromBytes(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	_, err = p.ReadAllRows()
	assert.NoError(t, err)
}

func TestCSVParser_RowLineNumbers(t *testing.T) {
	p, err := ParseFromBytes([]byte("id,name\n1,a\n2,b\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, "1", row.Get("id"))

	row, err = p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 3, row.LineNumber)
	assert.Equal(t, "b", row.Get("name"))
}

func TestCSVParser_ShortRowPadsEmpty(t *testing.T) {
	p, err := ParseFromBytes([]byte("id,name,phone\n1,a\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "", row.Get("phone"))
}

func TestCSVParser_ReadAllRowsSkipsEmpty(t *testing.T) {
	p, err := ParseFromBytes([]byte("id,name\n1,a\n,\n2,b\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	rows, err := p.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[1].Get("id"))
}

func TestCSVParser_TrimsIdeographicSpace(t *testing.T) {
	p, err := ParseFromBytes([]byte("name\n　山田　\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	row, err := p.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "山田", row.Get("name"))
}

func TestCSVParser_MissingHeaders(t *testing.T) {
	p, err := ParseFromBytes([]byte("id,name\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	missing := p.MissingHeaders([]string{"id", "phone", "email"})
	assert.Equal(t, []string{"phone", "email"}, missing)
}

func TestCSVWriter_WritesBOM(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf)
	require.NoError(t, err)

	require.NoError(t, w.WriteAll([]string{"漢字", "カナ"}, [][]string{{"山田", "ヤマダ"}}))

	out := buf.Bytes()
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
	assert.Contains(t, buf.String(), "山田,ヤマダ")
}

func TestRowError(t *testing.T) {
	e := NewRowError(3)
	assert.False(t, e.HasErrors())

	e.Add("漢字", "required")
	e.Add("電話番号", "invalid format")
	assert.True(t, e.HasErrors())
	assert.Contains(t, e.Error(), "line 3:")
	assert.Contains(t, e.Error(), "required")
}
