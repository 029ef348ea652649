package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-dao/beacon-deploy/internal/errs"
)

// Well-formed CIDs for canned store replies.
const (
	testHashCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	testDagCID  = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
)

func TestClient_Add(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotPath string
		var gotBody []byte

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path

			f, _, err := r.FormFile("file")
			require.NoError(t, err)
			gotBody, err = io.ReadAll(f)
			require.NoError(t, err)

			json.NewEncoder(w).Encode(map[string]string{"Hash": testHashCID})
		}))
		defer srv.Close()

		c := New(srv.URL)
		cid, err := c.Add(context.Background(), []byte("loader bytes"))
		require.NoError(t, err)

		assert.Equal(t, testHashCID, cid)
		assert.Equal(t, "/api/v0/add", gotPath)
		assert.Equal(t, []byte("loader bytes"), gotBody)
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "store on fire", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := New(srv.URL).Add(context.Background(), []byte("x"))
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindNetwork))
	})

	t.Run("malformed CID in reply", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"Hash": "not-a-cid"})
		}))
		defer srv.Close()

		_, err := New(srv.URL).Add(context.Background(), []byte("x"))
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindEncoding))
	})

	t.Run("unreachable store", func(t *testing.T) {
		c := New("http://127.0.0.1:1")
		_, err := c.Add(context.Background(), []byte("x"))
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindNetwork))
	})
}

func TestClient_DagPut(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotQuery map[string][]string
		var gotDoc map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v0/dag/put", r.URL.Path)
			gotQuery = r.URL.Query()

			f, _, err := r.FormFile("file")
			require.NoError(t, err)
			require.NoError(t, json.NewDecoder(f).Decode(&gotDoc))

			json.NewEncoder(w).Encode(map[string]any{
				"Cid": map[string]string{"/": testDagCID},
			})
		}))
		defer srv.Close()

		c := New(srv.URL)
		cid, err := c.DagPut(context.Background(), map[string]string{"title": "Vision DAO"})
		require.NoError(t, err)

		assert.Equal(t, testDagCID, cid)
		assert.Equal(t, []string{"dag-json"}, gotQuery["store-codec"])
		assert.Equal(t, []string{"dag-json"}, gotQuery["input-codec"])
		assert.Equal(t, "Vision DAO", gotDoc["title"])
	})

	t.Run("unserializable node", func(t *testing.T) {
		c := New("http://127.0.0.1:1")
		_, err := c.DagPut(context.Background(), map[string]any{"bad": func() {}})
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindSerialization))
	})

	t.Run("empty CID in reply", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"Cid": map[string]string{"/": ""}})
		}))
		defer srv.Close()

		_, err := New(srv.URL).DagPut(context.Background(), map[string]string{})
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindNetwork))
	})
}

func TestClient_ContextCancel(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Add(ctx, []byte("x"))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNetwork))
}
