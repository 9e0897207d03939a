package service

import (
	"strconv"
	"strings"

	"github.com/itchan-dev/contestbot/shared/domain"
	internal_errors "github.com/itchan-dev/contestbot/shared/errors"
)

// SelectTopN returns the first n entries of an already ranked slice, with n
// clamped to [1, len(ranked)].
func SelectTopN(ranked []domain.Submission, n int) ([]domain.Submission, error) {
	if len(ranked) == 0 {
		return nil, &internal_errors.ValidationError{Message: "⚠️ No submissions yet."}
	}
	n = min(max(n, 1), len(ranked))
	return ranked[:n:n], nil
}

// ParseWinnerCount reads the optional count argument of the winner command
// from its leading digits, so "3rd" means 3. Input without leading digits
// means a single winner.
func ParseWinnerCount(arg string) int {
	arg = strings.TrimSpace(arg)
	end := 0
	if end < len(arg) && (arg[end] == '-' || arg[end] == '+') {
		end++
	}
	digits := end
	for end < len(arg) && arg[end] >= '0' && arg[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	n, err := strconv.Atoi(arg[:end])
	if err != nil {
		return 1
	}
	return n
}
