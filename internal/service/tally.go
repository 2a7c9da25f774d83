package service

import (
	"github.com/plantogether/api/internal/model"
)

// TotalVotes returns the sum of vote counts across every option.
// Each option's votes are independent, so a user voting for several
// options contributes once per option.
func TotalVotes(votes model.VoteMap) int {
	total := 0
	for _, record := range votes {
		total += record.Count
	}
	return total
}

// OptionVotes returns the vote count for a single option.
// An absent entry counts as zero.
func OptionVotes(votes model.VoteMap, option string) int {
	return votes.Record(option).Count
}

// CastVote returns a copy of the vote map with the voter added to the
// given option. Casting twice for the same option is rejected with an
// already-voted error and no state change.
//
// Legacy numeric records carry no voter identity, so a cast on one keeps
// the existing count and starts tracking voters from this write on.
func CastVote(votes model.VoteMap, option string, voter model.Voter) (model.VoteMap, error) {
	record := votes.Record(option)
	if record.HasVoter(voter.ID) {
		return nil, model.NewAlreadyVotedError(option)
	}

	voters := make([]model.Voter, 0, len(record.Voters)+1)
	voters = append(voters, record.Voters...)
	voters = append(voters, voter)

	updated := copyVoteMap(votes)
	updated[option] = model.VoteRecord{
		Count:  record.Count + 1,
		Voters: voters,
	}
	return updated, nil
}

// RemoveVote returns a copy of the vote map with the user's vote removed
// from the given option. Removing a vote the user never cast is rejected
// with a not-voted error and no state change.
func RemoveVote(votes model.VoteMap, option string, userID string) (model.VoteMap, error) {
	record := votes.Record(option)
	if !record.HasVoter(userID) {
		return nil, model.NewNotVotedError(option)
	}

	voters := make([]model.Voter, 0, len(record.Voters))
	for _, v := range record.Voters {
		if v.ID != userID {
			voters = append(voters, v)
		}
	}

	count := record.Count - 1
	if count < 0 {
		count = 0
	}

	updated := copyVoteMap(votes)
	updated[option] = model.VoteRecord{
		Count:  count,
		Voters: voters,
	}
	return updated, nil
}

// Tally produces per-option totals plus the grand total for a vote map
func Tally(votes model.VoteMap) *model.VoteTallyResponse {
	totals := make(map[string]int, len(votes))
	total := 0
	for option, record := range votes {
		totals[option] = record.Count
		total += record.Count
	}
	return &model.VoteTallyResponse{
		Totals: totals,
		Total:  total,
	}
}

func copyVoteMap(votes model.VoteMap) model.VoteMap {
	updated := make(model.VoteMap, len(votes)+1)
	for option, record := range votes {
		updated[option] = record
	}
	return updated
}
