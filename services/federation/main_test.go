package federation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"candig/metadata/models"
	"candig/metadata/models/dtos"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newService(peers string) *Service {
	cfg := &models.Config{}
	cfg.Federation.PeersCommaSep = peers
	cfg.Federation.RequestTimeoutMs = 2000
	cfg.Federation.MaxRetries = 1
	return NewFederationService(cfg, logrus.New())
}

func TestPeerParsing(t *testing.T) {
	t.Run("comma separated list with noise", func(t *testing.T) {
		service := newService(" https://node-a.example.org/ , https://node-b.example.org ,")
		assert.Equal(t, []string{"https://node-a.example.org", "https://node-b.example.org"}, service.Peers)
	})

	t.Run("empty config means no peers", func(t *testing.T) {
		assert.Empty(t, newService("").Peers)
	})
}

func TestMergeInto(t *testing.T) {
	t.Run("count buckets sum bucket-wise", func(t *testing.T) {
		merged := dtos.QueryResult{
			"patients": []dtos.FieldCounts{
				{"gender": map[string]int{"male": 10, "female": 3}},
			},
		}

		err := mergeInto(merged, []byte(`{"patients": [{"gender": {"male": 7, "unknown": 1}}]}`))
		assert.NoError(t, err)

		entries := merged["patients"].([]dtos.FieldCounts)
		assert.Equal(t, map[string]int{"male": 17, "female": 3, "unknown": 1}, entries[0]["gender"])
	})

	t.Run("record lists concatenate", func(t *testing.T) {
		merged := dtos.QueryResult{}

		assert.NoError(t, mergeInto(merged, []byte(`{"variants": [{"id": "v1"}]}`)))
		assert.NoError(t, mergeInto(merged, []byte(`{"variants": [{"id": "v2"}]}`)))

		entries := merged["variants"].([]interface{})
		assert.Len(t, entries, 2)
	})

	t.Run("malformed body reports an error", func(t *testing.T) {
		assert.Error(t, mergeInto(dtos.QueryResult{}, []byte("not-json")))
	})
}

func TestFanOut(t *testing.T) {
	peerResponse := dtos.QueryResult{
		"patients": []dtos.FieldCounts{{"gender": map[string]int{"male": 5}}},
	}
	peer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("X-CanDIG-Authorization"))
		json.NewEncoder(w).Encode(peerResponse)
	}))
	defer peer.Close()

	deadPeer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer deadPeer.Close()

	service := newService(peer.URL + "," + deadPeer.URL)

	local := dtos.QueryResult{
		"patients": []dtos.FieldCounts{{"gender": map[string]int{"male": 10}}},
	}
	merged, err := service.FanOut(context.Background(),
		[]byte(`{}`), "X-CanDIG-Authorization", "tok", local)

	assert.NoError(t, err)
	entries := merged["patients"].([]dtos.FieldCounts)
	// the live peer contributes, the dead one degrades silently
	assert.Equal(t, 15, entries[0]["gender"]["male"])
}
