package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagListStoresEmptyAsArray(t *testing.T) {
	var tags TagList
	v, err := tags.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v, "nil tag list must serialize as an empty array, never NULL")
}

func TestTagListScanHandlesNull(t *testing.T) {
	var tags TagList
	require.NoError(t, tags.Scan(nil))
	assert.Equal(t, TagList{}, tags)

	require.NoError(t, tags.Scan(`["go","sqlite"]`))
	assert.Equal(t, TagList{"go", "sqlite"}, tags)
}
