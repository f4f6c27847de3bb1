package federation

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"
	"time"

	"candig/metadata/models"
	"candig/metadata/models/dtos"

	"github.com/Jeffail/gabs"
	"github.com/cenkalti/backoff"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

/*
	Federated search. A /federation/search request is replayed
	verbatim against every configured peer's /search endpoint and
	the local node, and the responses are merged : count buckets
	sum up, record lists concatenate. A peer that stays unreachable
	after retries contributes nothing ; federation is best-effort
	by design of the consortium protocol.
*/

type Service struct {
	Peers      []string
	MaxRetries uint64
	Logger     *logrus.Logger

	client *http.Client
}

func NewFederationService(cfg *models.Config, logger *logrus.Logger) *Service {
	peers := []string{}
	for _, peer := range strings.Split(cfg.Federation.PeersCommaSep, ",") {
		peer = strings.TrimSpace(peer)
		if peer != "" {
			peers = append(peers, strings.TrimRight(peer, "/"))
		}
	}

	timeout := time.Duration(cfg.Federation.RequestTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		Peers:      peers,
		MaxRetries: cfg.Federation.MaxRetries,
		Logger:     logger,
		client:     &http.Client{Timeout: timeout},
	}
}

type peerResponse struct {
	peer string
	body []byte
}

// FanOut posts the search envelope to every peer and merges what
// comes back on top of the local result. The caller's access header
// is forwarded unchanged so each peer applies its own authorization.
func (s *Service) FanOut(
	ctx context.Context,
	envelope []byte,
	accessHeaderName string,
	accessHeaderValue string,
	local dtos.QueryResult) (dtos.QueryResult, error) {

	merged := dtos.QueryResult{}
	for key, value := range local {
		merged[key] = value
	}

	if len(s.Peers) == 0 {
		return merged, nil
	}

	responses := make(chan *peerResponse, len(s.Peers))
	var wg sync.WaitGroup

	for _, peer := range s.Peers {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()

			body, err := s.queryPeer(ctx, peer, envelope, accessHeaderName, accessHeaderValue)
			if err != nil {
				s.Logger.WithField("peer", peer).WithError(err).Warn("peer unreachable, skipping")
				return
			}
			responses <- &peerResponse{peer: peer, body: body}
		}(peer)
	}
	wg.Wait()
	close(responses)

	for response := range responses {
		if err := mergeInto(merged, response.body); err != nil {
			s.Logger.WithField("peer", response.peer).WithError(err).Warn("unmergeable peer response, skipping")
		}
	}

	return merged, nil
}

func (s *Service) queryPeer(
	ctx context.Context,
	peer string,
	envelope []byte,
	accessHeaderName string,
	accessHeaderValue string) ([]byte, error) {

	var body []byte

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.MaxRetries), ctx)

	err := backoff.Retry(func() error {
		request, err := http.NewRequestWithContext(ctx, "POST", peer+"/search", bytes.NewReader(envelope))
		if err != nil {
			return backoff.Permanent(err)
		}
		request.Header.Set("Content-Type", "application/json")
		if accessHeaderValue != "" {
			request.Header.Set(accessHeaderName, accessHeaderValue)
		}

		response, err := s.client.Do(request)
		if err != nil {
			return err
		}
		defer response.Body.Close()

		if response.StatusCode >= 500 {
			return fmt.Errorf("peer returned %d", response.StatusCode)
		}
		if response.StatusCode != http.StatusOK {
			// a 4xx is the peer rejecting this envelope, retrying
			// cannot change that
			return backoff.Permanent(fmt.Errorf("peer returned %d", response.StatusCode))
		}

		body, err = ioutil.ReadAll(response.Body)
		return err
	}, policy)

	if err != nil {
		return nil, err
	}
	return body, nil
}

// mergeInto folds one peer's response into the accumulator. A table
// holding count entries (field -> value -> n) sums bucket-wise ;
// anything list-shaped concatenates.
func mergeInto(merged dtos.QueryResult, body []byte) error {
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return err
	}

	tables, err := parsed.ChildrenMap()
	if err != nil {
		return err
	}

	for tableName, child := range tables {
		entries, err := child.Children()
		if err != nil {
			// scalar or object payloads pass through untouched when
			// the local node has nothing under this key
			if _, exists := merged[tableName]; !exists {
				merged[tableName] = child.Data()
			}
			continue
		}

		for _, entry := range entries {
			counts := dtos.FieldCounts{}
			if decodeErr := mapstructure.Decode(entry.Data(), &counts); decodeErr == nil && len(counts) > 0 {
				mergeCounts(merged, tableName, counts)
				continue
			}
			appendEntry(merged, tableName, entry.Data())
		}
	}

	return nil
}

func mergeCounts(merged dtos.QueryResult, tableName string, counts dtos.FieldCounts) {
	existing, ok := merged[tableName].([]dtos.FieldCounts)
	if !ok || len(existing) == 0 {
		merged[tableName] = []dtos.FieldCounts{counts}
		return
	}

	target := existing[0]
	for field, buckets := range counts {
		if target[field] == nil {
			target[field] = map[string]int{}
		}
		for value, count := range buckets {
			target[field][value] += count
		}
	}
}

func appendEntry(merged dtos.QueryResult, tableName string, entry interface{}) {
	existing, _ := merged[tableName].([]interface{})
	merged[tableName] = append(existing, entry)
}
