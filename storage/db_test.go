package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	require.NoError(t, db.Put([]byte("sale/state"), []byte{0x01, 0x02}))
	got, err := db.Get([]byte("sale/state"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, got)
}

func TestMemDBMissingKey(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	_, err := db.Get([]byte("absent"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte{0xaa}
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 0xbb

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa}, got)

	got[0] = 0xcc
	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa}, again)
}
