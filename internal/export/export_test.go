// file: internal/export/export_test.go
// version: 1.0.0
// guid: 9dceb0df-a715-4fc5-9e70-4029bd783576

package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVFormat(t *testing.T) {
	type row struct {
		ID    string   `json:"id"`
		Name  *string  `json:"name"`
		Price float64  `json:"price"`
		Tags  []string `json:"tags"`
	}
	name := `Say "hi"`
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []row{
		{ID: "b001", Name: &name, Price: 9.99, Tags: []string{"a", "b"}},
		{ID: "b002", Tags: nil},
	}))

	lines := strings.Split(buf.String(), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,price,tags", lines[0])
	assert.Equal(t, `"b001","Say \"hi\"",9.99,["a","b"]`, lines[1])
	assert.Equal(t, `"b002","",0,""`, lines[2])
	assert.False(t, strings.HasSuffix(buf.String(), "\r\n"))
}

func TestWriteCSVMissingKeysAreEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []map[string]any{
		{"a": 1},
		{"b": 2},
	}))
	assert.Equal(t, "a\r\n1\r\n", buf.String())
}

func TestWriteCSVNoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, []models.Book{}), ErrNoData)
	assert.ErrorIs(t, WriteNDJSON(&buf, []models.Book{}), ErrNoData)
}

func TestUsersNeverExportPasswordHash(t *testing.T) {
	users := []models.User{{ID: "u001", Name: "John", Email: "john@example.com", PasswordHash: "$2a$10$secret", Membership: "premium", Bookmarks: []string{}}}

	var buf bytes.Buffer
	require.NoError(t, Users(&buf, FormatCSV, users))
	assert.NotContains(t, buf.String(), "secret")
	assert.NotContains(t, buf.String(), "passwordHash")
	assert.True(t, strings.HasPrefix(buf.String(), "id,name,email,membership,createdAt,isAdmin,bookmarks\r\n"))

	buf.Reset()
	require.NoError(t, Users(&buf, FormatNDJSON, users))
	assert.NotContains(t, buf.String(), "secret")
}

func TestBooksNDJSON(t *testing.T) {
	books := []models.Book{{ID: "b001", Title: "One"}, {ID: "b002", Title: "Two & Three"}}
	var buf bytes.Buffer
	require.NoError(t, Books(&buf, FormatNDJSON, books))

	sc := bufio.NewScanner(&buf)
	var got []models.Book
	for sc.Scan() {
		var b models.Book
		require.NoError(t, json.Unmarshal(sc.Bytes(), &b))
		got = append(got, b)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "Two & Three", got[1].Title)
}

func TestUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Books(&buf, "xml", []models.Book{{ID: "b001"}}))
	assert.Equal(t, "application/x-ndjson", ContentType(FormatNDJSON))
	assert.Contains(t, ContentType(FormatCSV), "text/csv")
}
