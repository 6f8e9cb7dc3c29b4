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

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/guild/governance"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleHeight(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HeightResponse{Height: s.heights.CurrentHeight()})
}

// handleRequest decodes the request body into req and writes the response
// of fn. Decode errors result in a bad request response.
func handleRequest[Req any](
	s *Server,
	w http.ResponseWriter,
	r *http.Request,
	successStatus int,
	fn func(req *Req) (any, error),
) {
	var req Req
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	resp, err := fn(&req)
	if err != nil {
		if errors.Is(err, errBadRequest) {
			writeBadRequest(w, err)
			return
		}
		s.writeEngineError(w, r, err)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, successStatus, resp)
}

// respond writes the result of a request without a body
func (s *Server) respond(
	w http.ResponseWriter,
	r *http.Request,
	resp any,
	err error,
) {
	if err != nil {
		if errors.Is(err, errBadRequest) {
			writeBadRequest(w, err)
			return
		}
		s.writeEngineError(w, r, err)
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTreasury(w http.ResponseWriter, r *http.Request) {
	treasury, err := s.engine.Treasury(r.Context())
	s.respond(w, r, treasury, err)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *AmountRequest) (any, error) {
		return nil, s.engine.Deposit(r.Context(), s.op(r), req.Amount)
	})
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	params, err := s.engine.Parameters(r.Context())
	s.respond(w, r, params, err)
}

func (s *Server) handleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *governance.Params) (any, error) {
		if err := s.engine.UpdateParameters(r.Context(), s.op(r), *req); err != nil {
			return nil, err
		}
		return req, nil
	})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	height, err := s.heightParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	members, err := s.engine.Members(r.Context(), height)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	SetPaginationHeaders(w, len(members), params)
	writeJSON(w, http.StatusOK, paginate(members, params))
}

func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	height, err := s.heightParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	member, err := s.engine.Member(r.Context(), chi.URLParam(r, "identity"), height)
	s.respond(w, r, member, err)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *AmountRequest) (any, error) {
		op := s.op(r)
		if err := s.engine.Contribute(r.Context(), op, req.Amount); err != nil {
			return nil, err
		}
		return s.engine.Member(r.Context(), op.Caller, op.Height)
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *AmountRequest) (any, error) {
		op := s.op(r)
		if err := s.engine.WithdrawContribution(r.Context(), op, req.Amount); err != nil {
			return nil, err
		}
		return s.engine.Member(r.Context(), op.Caller, op.Height)
	})
}

func (s *Server) handleDelegate(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *DelegateRequest) (any, error) {
		op := s.op(r)
		if err := s.engine.Delegate(
			r.Context(),
			op,
			req.Delegate,
			req.Amount,
			req.Expiry,
		); err != nil {
			return nil, err
		}
		return s.engine.Member(r.Context(), op.Caller, op.Height)
	})
}

func (s *Server) handleRevokeDelegation(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, nil, s.engine.RevokeDelegation(r.Context(), s.op(r)))
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var status *governance.ProposalStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		tmp, err := governance.ParseProposalStatus(raw)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		status = &tmp
	}
	proposals, err := s.engine.Proposals(r.Context(), status)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	SetPaginationHeaders(w, len(proposals), params)
	writeJSON(w, http.StatusOK, paginate(proposals, params))
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusCreated, func(req *ProposalRequest) (any, error) {
		id, err := s.engine.CreateProposal(r.Context(), s.op(r), *req)
		if err != nil {
			return nil, err
		}
		w.Header().Set("Location", "/api/v1/proposals/"+strconv.FormatUint(id, 10))
		return CreateProposalResponse{ID: id}, nil
	})
}

func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	proposal, err := s.engine.Proposal(r.Context(), id)
	s.respond(w, r, proposal, err)
}

func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	votes, err := s.engine.Votes(r.Context(), id)
	s.respond(w, r, votes, err)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *VoteRequest) (any, error) {
		id, err := uintParam(r, "id")
		if err != nil {
			return nil, err
		}
		if err := s.engine.Vote(r.Context(), s.op(r), id, req.Support, req.Amount); err != nil {
			return nil, err
		}
		return s.engine.Proposal(r.Context(), id)
	})
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	tally, err := s.engine.Tally(r.Context(), id)
	s.respond(w, r, tally, err)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	tally, err := s.engine.FinalizeProposal(r.Context(), s.op(r), id)
	s.respond(w, r, tally, err)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.ExecuteProposal(r.Context(), s.op(r), id); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	proposal, err := s.engine.Proposal(r.Context(), id)
	s.respond(w, r, proposal, err)
}

func (s *Server) handleReturnPool(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	pool, err := s.engine.ReturnPool(r.Context(), id)
	s.respond(w, r, pool, err)
}

func (s *Server) handleCreateReturnPool(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusCreated, func(req *AmountRequest) (any, error) {
		id, err := uintParam(r, "id")
		if err != nil {
			return nil, err
		}
		if err := s.engine.CreateReturnPool(r.Context(), s.op(r), id, req.Amount); err != nil {
			return nil, err
		}
		return s.engine.ReturnPool(r.Context(), id)
	})
}

func (s *Server) handleClaimReturns(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	op := s.op(r)
	share, err := s.engine.ClaimReturns(r.Context(), op, id)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{ProposalID: id, Member: op.Caller, Amount: share})
}

func (s *Server) handleCloseReturnPool(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := s.engine.CloseReturnPool(r.Context(), s.op(r), id); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	pool, err := s.engine.ReturnPool(r.Context(), id)
	s.respond(w, r, pool, err)
}

func (s *Server) handleMemberShare(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	member := chi.URLParam(r, "member")
	share, err := s.engine.CalculateMemberShare(r.Context(), member, id)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{ProposalID: id, Member: member, Amount: share})
}

func (s *Server) handleEmergencyAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.engine.EmergencyAdmins(r.Context())
	s.respond(w, r, admins, err)
}

func (s *Server) handleAddEmergencyAdmin(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *EmergencyAdminRequest) (any, error) {
		added, err := s.engine.AddEmergencyAdmin(r.Context(), s.op(r), req.Identity)
		if err != nil {
			return nil, err
		}
		return EmergencyAdminResponse{Identity: req.Identity, Added: added}, nil
	})
}

func (s *Server) handleRemoveEmergencyAdmin(w http.ResponseWriter, r *http.Request) {
	err := s.engine.RemoveEmergencyAdmin(r.Context(), s.op(r), chi.URLParam(r, "identity"))
	s.respond(w, r, nil, err)
}

func (s *Server) handleSetEmergencyState(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *EmergencyStateRequest) (any, error) {
		active, err := s.engine.SetEmergencyState(r.Context(), s.op(r), req.Active)
		if err != nil {
			return nil, err
		}
		return EmergencyStateResponse{Active: active}, nil
	})
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	handleRequest(s, w, r, http.StatusOK, func(req *EmergencyWithdrawRequest) (any, error) {
		if err := s.engine.EmergencyWithdraw(r.Context(), s.op(r), req.To, req.Amount); err != nil {
			return nil, err
		}
		return s.engine.Treasury(r.Context())
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	from := uint64(1)
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = strconv.ParseUint(raw, 10, 64); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	entries, err := s.engine.Journal(r.Context(), from, params.Count)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	ret := make([]JournalEntry, 0, len(entries))
	for _, entry := range entries {
		ret = append(ret, JournalEntry{
			Seq:       entry.Seq,
			Height:    entry.Height,
			Caller:    entry.Caller,
			Operation: entry.Operation,
			Subject:   entry.Subject,
			Amount:    entry.Amount,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}
