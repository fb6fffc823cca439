package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"webweaver/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(prompt string) *model.ChatRecord {
	return model.NewChatRecord(prompt, "```html\n<p>"+prompt+"</p>\n```", time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.Local))
}

func backends(t *testing.T) map[string]HistoryStore {
	disk := NewDiskStorage(filepath.Join(t.TempDir(), "history", "chat_history.json"))
	require.NoError(t, disk.Init())
	mem := NewMemoryStorage()
	require.NoError(t, mem.Init())
	return map[string]HistoryStore{"disk": disk, "memory": mem}
}

func TestHistoryStore_AppendListGetDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(record("one")))
			require.NoError(t, store.Append(record("two")))
			require.NoError(t, store.Append(record("three")))

			list, err := store.List()
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "one", list[0].Prompt)
			assert.Equal(t, "three", list[2].Prompt)

			got, err := store.Get(1)
			require.NoError(t, err)
			assert.Equal(t, "two", got.Prompt)
			assert.Equal(t, "2025-03-01T10:00:00.123456", got.Timestamp)

			require.NoError(t, store.Delete(1))
			list, err = store.List()
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "one", list[0].Prompt)
			assert.Equal(t, "three", list[1].Prompt)

			require.NoError(t, store.Close())
		})
	}
}

func TestHistoryStore_OutOfRange(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(0)
			assert.ErrorIs(t, err, ErrRecordNotFound)

			require.NoError(t, store.Append(record("x")))
			assert.ErrorIs(t, store.Delete(1), ErrRecordNotFound)
			assert.ErrorIs(t, store.Delete(-1), ErrRecordNotFound)
			assert.ErrorIs(t, store.Append(nil), ErrInvalidData)
		})
	}
}

func TestHistoryStore_ListIsACopy(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Append(record("x")))

			list, err := store.List()
			require.NoError(t, err)
			list[0].Prompt = "mutated"

			got, err := store.Get(0)
			require.NoError(t, err)
			assert.Equal(t, "x", got.Prompt)
		})
	}
}

func TestDiskStorage_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	store := NewDiskStorage(path)
	require.NoError(t, store.Init())
	require.NoError(t, store.Append(record("cafe site")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n    {\n        \"timestamp\""))
	assert.Contains(t, string(data), "<p>cafe site</p>")
	assert.NotContains(t, string(data), `\u003c`)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "cafe site", decoded[0]["prompt"])
	assert.Contains(t, decoded[0]["response"], "<p>cafe site</p>")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStorage_ReloadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	existing := `[{"timestamp": "2024-05-01T09:30:00.000001", "prompt": "old", "response": "r"}]`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	store := NewDiskStorage(path)
	require.NoError(t, store.Init())

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "old", list[0].Prompt)

	require.NoError(t, store.Append(record("new")))

	reopened := NewDiskStorage(path)
	require.NoError(t, reopened.Init())
	list, err = reopened.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDiskStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	err := NewDiskStorage(path).Init()
	assert.ErrorIs(t, err, ErrStorageInit)
}

func TestDiskStorage_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat_history.json")
	store := NewDiskStorage(path)
	require.NoError(t, store.Init())

	// 目标路径被目录占用，rename 必然失败
	require.NoError(t, os.Mkdir(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0644))

	err := store.Append(record("x"))
	assert.ErrorIs(t, err, ErrFileOperation)

	list, _ := store.List()
	assert.Empty(t, list)
}
