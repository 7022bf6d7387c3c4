package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10_000}.Limit())
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "1812345678901234567"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "1812345678901234567", cursor.ID)

	cursor, err = DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}

func TestTrim(t *testing.T) {
	items := []int{9, 8, 7, 6}
	id := func(v int) string { return strconv.Itoa(v) }

	page, info, err := Trim(items, 3, id)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 8, 7}, page)
	assert.True(t, info.HasMore)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "7", cursor.ID)

	page, info, err = Trim(items, 4, id)
	require.NoError(t, err)
	assert.Len(t, page, 4)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
