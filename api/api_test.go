// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/guild/api"
	"github.com/blinklabs-io/guild/bank"
	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/governance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedHeight struct {
	height atomic.Uint64
}

func (f *fixedHeight) CurrentHeight() uint64 {
	return f.height.Load()
}

type apiEnv struct {
	server   *api.Server
	handler  http.Handler
	heights  *fixedHeight
	ledger   *bank.Ledger
	registry *prometheus.Registry
	eventBus *event.EventBus
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	ledger := bank.NewLedger(nil, map[string]uint64{
		"alice":    20_000_000,
		"bob":      20_000_000,
		"investor": 100_000_000,
	})
	registry := prometheus.NewRegistry()
	eventBus := event.NewEventBus(registry, nil)
	t.Cleanup(eventBus.Stop)
	engine, err := governance.NewEngine(governance.EngineConfig{
		Database:     db,
		Bank:         ledger,
		EventBus:     eventBus,
		PromRegistry: registry,
	})
	require.NoError(t, err)
	_, err = engine.Bootstrap(context.Background(), governance.Genesis{
		Admin:            "admin",
		TreasuryIdentity: "treasury",
		Params: governance.Params{
			ProposalFee:            100_000,
			MinProposalAmount:      1_000_000,
			MaxProposalAmount:      50_000_000,
			VotingDelay:            10,
			VotingPeriod:           100,
			TimelockPeriod:         50,
			QuorumThreshold:        2_000,
			SuperMajorityThreshold: 6_667,
		},
		EmergencyAdmins: []string{"guardian"},
	})
	require.NoError(t, err)
	heights := &fixedHeight{}
	heights.height.Store(1)
	server := api.New(
		api.Config{PromRegistry: registry, PromGatherer: registry},
		engine,
		heights,
		eventBus,
		nil,
	)
	return &apiEnv{
		server:   server,
		handler:  server.Handler(),
		heights:  heights,
		ledger:   ledger,
		registry: registry,
		eventBus: eventBus,
	}
}

func (env *apiEnv) do(
	t *testing.T,
	method string,
	path string,
	caller string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	if caller != "" {
		req.Header.Set(api.CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ret), rec.Body.String())
	return ret
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[api.HealthResponse](t, rec).IsHealthy)
	assert.NotEmpty(t, rec.Header().Get(api.RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	env := newAPIEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/height", nil)
	req.Header.Set(api.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get(api.RequestIDHeader))
	assert.Equal(t, uint64(1), decode[api.HeightResponse](t, rec).Height)
}

func TestContributeAndTreasury(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/contributions", "alice", api.AmountRequest{Amount: 5_000_000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	member := decode[governance.Member](t, rec)
	assert.Equal(t, uint64(5_000_000), member.VotingPower)

	rec = env.do(t, http.MethodGet, "/api/v1/treasury", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	treasury := decode[governance.Treasury](t, rec)
	assert.Equal(t, uint64(5_000_000), treasury.Balance)
	assert.Equal(t, uint64(5_000_000), treasury.TotalVotingPower)
	assert.Equal(t, uint64(5_000_000), env.ledger.Balance("treasury"))

	rec = env.do(t, http.MethodGet, "/api/v1/members/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/members/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	env := newAPIEnv(t)
	testDefs := []struct {
		name   string
		method string
		path   string
		caller string
		body   any
		status int
		kind   string
	}{
		{
			name:   "zero contribution",
			method: http.MethodPost,
			path:   "/api/v1/contributions",
			caller: "alice",
			body:   api.AmountRequest{},
			status: http.StatusBadRequest,
			kind:   "InvalidAmount",
		},
		{
			name:   "non-admin parameter update",
			method: http.MethodPut,
			path:   "/api/v1/parameters",
			caller: "alice",
			body:   governance.DefaultParams(),
			status: http.StatusForbidden,
			kind:   "NotAuthorized",
		},
		{
			name:   "unknown proposal",
			method: http.MethodGet,
			path:   "/api/v1/proposals/42",
			status: http.StatusNotFound,
			kind:   "NotFound",
		},
		{
			name:   "malformed proposal id",
			method: http.MethodGet,
			path:   "/api/v1/proposals/abc",
			status: http.StatusBadRequest,
			kind:   "BadRequest",
		},
		{
			name:   "withdraw by non-member",
			method: http.MethodPost,
			path:   "/api/v1/withdrawals",
			caller: "bob",
			body:   api.AmountRequest{Amount: 1},
			status: http.StatusForbidden,
			kind:   "NotAuthorized",
		},
		{
			name:   "emergency withdraw outside emergency",
			method: http.MethodPost,
			path:   "/api/v1/emergency/withdrawals",
			caller: "admin",
			body:   api.EmergencyWithdrawRequest{To: "vault", Amount: 1},
			status: http.StatusConflict,
			kind:   "NotEmergency",
		},
		{
			name:   "emergency withdraw by emergency admin",
			method: http.MethodPost,
			path:   "/api/v1/emergency/withdrawals",
			caller: "guardian",
			body:   api.EmergencyWithdrawRequest{To: "vault", Amount: 1},
			status: http.StatusForbidden,
			kind:   "NotAuthorized",
		},
		{
			name:   "no return pool",
			method: http.MethodPost,
			path:   "/api/v1/proposals/1/returns/claims",
			caller: "alice",
			status: http.StatusNotFound,
			kind:   "NoReturns",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			rec := env.do(t, testDef.method, testDef.path, testDef.caller, testDef.body)
			require.Equal(t, testDef.status, rec.Code, rec.Body.String())
			resp := decode[api.ErrorResponse](t, rec)
			assert.Equal(t, testDef.kind, resp.Kind)
			assert.Equal(t, testDef.status, resp.StatusCode)
		})
	}
}

func TestRejectsUnknownFields(t *testing.T) {
	env := newAPIEnv(t)
	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/contributions",
		strings.NewReader(`{"amount": 5, "bogus": true}`),
	)
	req.Header.Set(api.CallerHeader, "alice")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BadRequest", decode[api.ErrorResponse](t, rec).Kind)
}

func TestEmergencyBlocksOperations(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodPut, "/api/v1/emergency/state", "guardian", api.EmergencyStateRequest{Active: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[api.EmergencyStateResponse](t, rec).Active)

	rec = env.do(t, http.MethodPost, "/api/v1/contributions", "alice", api.AmountRequest{Amount: 1_000_000})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "EmergencyActive", decode[api.ErrorResponse](t, rec).Kind)
}

func TestProposalLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	for _, member := range []string{"alice", "bob"} {
		rec := env.do(t, http.MethodPost, "/api/v1/contributions", member, api.AmountRequest{Amount: 5_000_000})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := env.do(t, http.MethodPost, "/api/v1/proposals", "alice", api.ProposalRequest{
		Title:       "Audit",
		Description: "Fund a security audit",
		Amount:      2_000_000,
		Target:      "auditor",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[api.CreateProposalResponse](t, rec).ID
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, "/api/v1/proposals/1", rec.Header().Get("Location"))

	// Voting opens after the delay
	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/votes", "bob", api.VoteRequest{Support: true, Amount: 1})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ProposalNotActive", decode[api.ErrorResponse](t, rec).Kind)

	env.heights.height.Store(11)
	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/votes", "bob", api.VoteRequest{Support: true, Amount: 4_000_000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(4_000_000), decode[governance.Proposal](t, rec).YesVotes)

	rec = env.do(t, http.MethodGet, "/api/v1/proposals/1/votes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]governance.Vote](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/v1/proposals?status=active", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]governance.Proposal](t, rec), 1)
	rec = env.do(t, http.MethodGet, "/api/v1/proposals?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.heights.height.Store(111)
	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/finalize", "carol", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tally := decode[governance.Tally](t, rec)
	assert.True(t, tally.QuorumReached)
	assert.Equal(t, governance.ProposalStatusPassed, tally.Status)

	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/execute", "admin", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TimelockActive", decode[api.ErrorResponse](t, rec).Kind)

	env.heights.height.Store(161)
	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/execute", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[governance.Proposal](t, rec).Executed)
	assert.Equal(t, uint64(2_000_000), env.ledger.Balance("auditor"))

	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/returns", "admin", api.AmountRequest{Amount: 1_000_000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/proposals/1/returns/shares/bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1_000_000), decode[api.ShareResponse](t, rec).Amount)

	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/returns/claims", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(1_000_000), decode[api.ShareResponse](t, rec).Amount)

	rec = env.do(t, http.MethodPost, "/api/v1/proposals/1/returns/claims", "bob", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "AlreadyClaimed", decode[api.ErrorResponse](t, rec).Kind)
}

func TestPaginatedMembers(t *testing.T) {
	env := newAPIEnv(t)
	for _, member := range []string{"alice", "bob"} {
		rec := env.do(t, http.MethodPost, "/api/v1/contributions", member, api.AmountRequest{Amount: 1_000_000})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/members?count=1&page=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	members := decode[[]governance.Member](t, rec)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].Identity)

	rec = env.do(t, http.MethodGet, "/api/v1/members?count=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJournalEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodPost, "/api/v1/treasury/deposits", "investor", api.AmountRequest{Amount: 1_000_000})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/journal", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]api.JournalEntry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "bootstrap", entries[0].Operation)
	assert.Equal(t, "deposit", entries[1].Operation)
	assert.Equal(t, "investor", entries[1].Caller)

	rec = env.do(t, http.MethodGet, "/api/v1/journal?from=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.JournalEntry](t, rec), 1)
}

func TestHTTPMetrics(t *testing.T) {
	env := newAPIEnv(t)
	env.do(t, http.MethodGet, "/api/v1/proposals/7", "", nil)
	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/api/v1/proposals/{id}`)
	assert.NotContains(t, rec.Body.String(), `path="/api/v1/proposals/7"`)
	count, err := testutil.GatherAndCount(env.registry, "guild_http_requests_total")
	require.NoError(t, err)
	// The proposal lookup and the scrape itself
	assert.Equal(t, 2, count)
}

func TestEventStream(t *testing.T) {
	env := newAPIEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		srv.URL+"/api/v1/events?type=governance.member",
		nil,
	)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rec := env.do(t, http.MethodPost, "/api/v1/contributions", "alice", api.AmountRequest{Amount: 1_000_000})
	require.Equal(t, http.StatusOK, rec.Code)

	scanner := bufio.NewScanner(resp.Body)
	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			eventLine = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	assert.Equal(t, string(governance.EventTypeMember), eventLine)
	var msg struct {
		Type event.EventType            `json:"type"`
		Data governance.GovernanceEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(dataLine), &msg))
	assert.Equal(t, "contribute", msg.Data.Operation)
	assert.Equal(t, "alice", msg.Data.Caller)
	assert.Equal(t, uint64(1_000_000), msg.Data.Amount)
}

func TestEventStreamRejectsUnknownType(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/events?type=chain.block", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartStop(t *testing.T) {
	env := newAPIEnv(t)
	server := api.New(api.Config{ListenAddress: "127.0.0.1:0"}, nil, env.heights, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, server.Start(ctx))
	require.Error(t, server.Start(ctx))
	require.NoError(t, server.Stop(context.Background()))
	require.NoError(t, server.Stop(context.Background()))
}
