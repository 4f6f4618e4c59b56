package snapshot

import (
	"bytes"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/uniclass/pkg/catalog"
	"github.com/ssargent/uniclass/pkg/codec"
	"github.com/ssargent/uniclass/pkg/uniclass"
)

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.FromEntries([]catalog.Entry{
		{Code: uniclass.MustParse("Ss_25"), Title: "Wall and barrier systems", Source: "Ss.csv"},
		{Code: uniclass.MustParse("Ss_25_10"), Title: "Framed wall systems", Source: "Ss.csv"},
		{Code: uniclass.MustParse("Pr_20_93_52_14"), Title: "Mortar", Source: "Pr.csv"},
	}, catalog.Policy{})
	require.NoError(t, err)
	return cat
}

func TestWriteRead(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2025, 3, 1, 12, 30, 45, 500, time.UTC)

	written, err := Write(&buf, sampleCatalog(t), Header{Created: created, Digest: "blake3:abc"})
	require.NoError(t, err)
	assert.Equal(t, Version, written.Version)
	assert.Equal(t, 3, written.Count)

	cat, h, err := Read(bytes.NewReader(buf.Bytes()), catalog.Policy{})
	require.NoError(t, err)
	assert.Equal(t, written, h)
	assert.Equal(t, created.Truncate(time.Second), h.Created)
	assert.Equal(t, "blake3:abc", h.Digest)
	assert.Equal(t, sampleCatalog(t).Entries(), cat.Entries())

	header, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, h, header)
}

func TestWrite_DefaultsCreated(t *testing.T) {
	var buf bytes.Buffer
	h, err := Write(&buf, sampleCatalog(t), Header{})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), h.Created, 2*time.Second)
}

func TestWrite_RejectsSparseCode(t *testing.T) {
	sparse, err := uniclass.NewSparse(uniclass.Systems, 25, uniclass.Absent, 15)
	require.NoError(t, err)
	cat, err := catalog.FromEntries([]catalog.Entry{{Code: sparse, Title: "Gap"}}, catalog.Policy{})
	require.NoError(t, err)

	_, err = Write(&bytes.Buffer{}, cat, Header{})
	assert.ErrorIs(t, err, uniclass.ErrNonHierarchical)
}

func TestRead_Rejects(t *testing.T) {
	t.Run("not zstd", func(t *testing.T) {
		_, _, err := Read(bytes.NewReader([]byte("Code,Title\n")), catalog.Policy{})
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("wrong magic", func(t *testing.T) {
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		payload, err := codec.Marshal(wireHeader{Magic: "other", Version: Version})
		require.NoError(t, err)
		require.NoError(t, codec.WriteFrame(zw, payload))
		require.NoError(t, zw.Close())

		_, _, err = Read(&buf, catalog.Policy{})
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("count mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		payload, err := codec.Marshal(wireHeader{Magic: magic, Version: Version, Count: 2})
		require.NoError(t, err)
		require.NoError(t, codec.WriteFrame(zw, payload))
		require.NoError(t, codec.NewRecordCodec().Write(zw, codec.Record{Code: uniclass.MustParse("Ss_25"), Title: "x"}))
		require.NoError(t, zw.Close())

		_, _, err = Read(&buf, catalog.Policy{})
		assert.ErrorIs(t, err, ErrCount)
	})

	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Write(&buf, sampleCatalog(t), Header{})
		require.NoError(t, err)

		_, _, err = Read(bytes.NewReader(buf.Bytes()[:buf.Len()/2]), catalog.Policy{})
		assert.Error(t, err)
	})
}
