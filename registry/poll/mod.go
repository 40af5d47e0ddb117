// Package poll implements the registry of polls and their votes. The poll
// and vote contract types share this registry.
package poll

import (
	"github.com/meridian-network/meridian"
	"github.com/meridian-network/meridian/core/chain"
	"github.com/meridian-network/meridian/core/contract"
	"github.com/meridian-network/meridian/core/dispatch"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Poll is one registered poll.
type Poll struct {
	Title    string
	Question string
	URL      string
	Choices  []string
	Days     uint32
	Time     int64
}

// Vote is one registered answer to a poll.
type Vote struct {
	PollTitle string
	Responses []string
	Time      int64
}

// Registry holds the derived poll and vote state rebuilt from historical
// contracts.
//
// - implements dispatch.Handler
type Registry struct {
	polls  map[string]Poll
	votes  map[string][]Vote
	logger zerolog.Logger
}

// NewRegistry creates an empty poll registry.
func NewRegistry() *Registry {
	reg := &Registry{
		logger: meridian.Logger.With().Str("registry", "poll").Logger(),
	}
	reg.Reset()

	return reg
}

// Reset implements dispatch.Handler. It clears all derived state.
func (r *Registry) Reset() {
	r.polls = make(map[string]Poll)
	r.votes = make(map[string][]Vote)
}

// Validate implements dispatch.Handler. A new poll must not reuse an
// existing title and a vote must answer a known poll.
func (r *Registry) Validate(c contract.Contract, tx *chain.Transaction) bool {
	payload, err := c.SharePayload()
	if err != nil {
		return false
	}

	switch c.Type {
	case contract.TypePoll:
		_, found := r.polls[payload.LegacyKeyString()]
		if c.Action == contract.ActionAdd {
			return !found
		}

		return found
	case contract.TypeVote:
		_, found := r.polls[payload.LegacyKeyString()]

		return found
	}

	return false
}

// Add implements dispatch.Handler.
func (r *Registry) Add(ctx dispatch.Context) error {
	payload, err := ctx.Contract.SharePayload()
	if err != nil {
		return xerrors.Errorf("couldn't share payload: %v", err)
	}

	switch p := payload.(type) {
	case *contract.PollPayload:
		r.polls[p.Title] = Poll{
			Title:    p.Title,
			Question: p.Question,
			URL:      p.URL,
			Choices:  p.Choices,
			Days:     p.Days,
			Time:     ctx.Tx.Time,
		}
	case *contract.VotePayload:
		r.votes[p.PollTitle] = append(r.votes[p.PollTitle], Vote{
			PollTitle: p.PollTitle,
			Responses: p.Responses,
			Time:      ctx.Tx.Time,
		})
	default:
		return xerrors.Errorf("unexpected payload type '%T'", payload)
	}

	return nil
}

// Delete implements dispatch.Handler. Removing a poll drops its votes as
// well; removing a vote drops the latest matching answer.
func (r *Registry) Delete(ctx dispatch.Context) error {
	payload, err := ctx.Contract.SharePayload()
	if err != nil {
		return xerrors.Errorf("couldn't share payload: %v", err)
	}

	switch p := payload.(type) {
	case *contract.PollPayload:
		delete(r.polls, p.Title)
		delete(r.votes, p.Title)
	case *contract.VotePayload:
		r.deleteVote(p)
	default:
		return xerrors.Errorf("unexpected payload type '%T'", payload)
	}

	return nil
}

// Revert implements dispatch.Handler.
func (r *Registry) Revert(ctx dispatch.Context) error {
	return dispatch.DefaultRevert(r, ctx)
}

func (r *Registry) deleteVote(p *contract.VotePayload) {
	votes := r.votes[p.PollTitle]

	for i := len(votes) - 1; i >= 0; i-- {
		if sameResponses(votes[i].Responses, p.Responses) {
			r.votes[p.PollTitle] = append(votes[:i], votes[i+1:]...)
			return
		}
	}

	r.logger.Warn().Str("poll", p.PollTitle).Msg("no matching vote to delete")
}

// TryPoll returns the poll with the given title.
func (r *Registry) TryPoll(title string) (Poll, bool) {
	poll, found := r.polls[title]

	return poll, found
}

// Votes returns the registered votes of the poll.
func (r *Registry) Votes(title string) []Vote {
	return r.votes[title]
}

// Count returns the number of registered polls.
func (r *Registry) Count() int {
	return len(r.polls)
}

func sameResponses(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
