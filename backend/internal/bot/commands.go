package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/itchan-dev/contestbot/backend/internal/service"
	"github.com/itchan-dev/contestbot/shared/domain"
	internal_errors "github.com/itchan-dev/contestbot/shared/errors"
)

type command struct {
	adminOnly bool
	run       func(b *Bot, ctx context.Context, log *slog.Logger, args string) (string, error)
}

var commands = map[string]command{
	"tally":     {run: (*Bot).runTally},
	"winner":    {adminOnly: true, run: (*Bot).runWinner},
	"votes":     {run: (*Bot).runVotes},
	"reset":     {adminOnly: true, run: (*Bot).runReset},
	"close":     {adminOnly: true, run: (*Bot).runClose},
	"open":      {adminOnly: true, run: (*Bot).runOpen},
	"countdown": {run: (*Bot).runCountdown},
}

const notAuthorized = "❌ Not authorized."

func (b *Bot) dispatch(ctx context.Context, log *slog.Logger, r Responder, m Message, name, args string) {
	cmd := commands[name]
	if cmd.adminOnly && m.AuthorId != b.cfg.AdminId {
		log.Warn("unauthorized command", "command", name)
		b.reply(log, r, m, notAuthorized)
		return
	}

	text, err := cmd.run(b, ctx, log, args)
	if err != nil {
		log.Error("command failed", "command", name, "error", err)
		b.reply(log, r, m, userMessage(err))
		return
	}
	b.send(log, r, m.ChannelId, text)
}

func (b *Bot) runTally(ctx context.Context, log *slog.Logger, _ string) (string, error) {
	ranked, report, err := b.tally.Tally(ctx)
	if err != nil {
		return "", err
	}
	log.Info("tally finished", "refreshed", report.Refreshed, "failed", len(report.Failed))

	var sb strings.Builder
	sb.WriteString("📊 **Vote Results:**")
	if len(ranked) == 0 {
		sb.WriteString("\nNo submissions yet.")
	}
	for _, sub := range ranked {
		fmt.Fprintf(&sb, "\n#%d: %d vote(s)", sub.Id, sub.VoteCount)
	}
	if len(report.Failed) > 0 {
		failed := make([]string, 0, len(report.Failed))
		for _, id := range report.Failed {
			failed = append(failed, fmt.Sprintf("#%d", id))
		}
		fmt.Fprintf(&sb, "\n⚠️ Could not refresh %s, previous counts kept.", strings.Join(failed, ", "))
	}
	return sb.String(), nil
}

// runWinner ranks on stored counts. Run tally first to refresh them.
func (b *Bot) runWinner(ctx context.Context, log *slog.Logger, args string) (string, error) {
	ranked, err := b.tally.Ranked(ctx)
	if err != nil {
		return "", err
	}
	winners, err := service.SelectTopN(ranked, service.ParseWinnerCount(firstField(args)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(winners) > 1 {
		sb.WriteString("🏆 **Winners:**")
	} else {
		sb.WriteString("🏆 **Winner:**")
	}
	for _, w := range winners {
		fmt.Fprintf(&sb, "\n🥇 #%d — %d votes", w.Id, w.VoteCount)
	}

	if b.cfg.ConfirmationChannel != "" {
		for _, w := range winners {
			text := fmt.Sprintf("🎉 Winner: <@%s> with Submission #%d (%d votes)", w.OwnerId, w.Id, w.VoteCount)
			if err := b.board.Notify(ctx, b.cfg.ConfirmationChannel, text); err != nil {
				log.Error("winner announcement failed", "submission_id", w.Id, "error", err)
				break
			}
		}
	}
	return sb.String(), nil
}

func (b *Bot) runVotes(ctx context.Context, _ *slog.Logger, args string) (string, error) {
	id, err := strconv.ParseInt(firstField(args), 10, 64)
	if err != nil {
		return "", &internal_errors.ValidationError{Message: "❌ Usage: `" + b.cfg.Prefix + "votes <submission number>`"}
	}
	sub, err := b.submissions.GetById(ctx, domain.SubmissionId(id))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("📊 Submission #%d has **%d** vote(s).", sub.Id, sub.VoteCount), nil
}

func (b *Bot) runReset(ctx context.Context, log *slog.Logger, _ string) (string, error) {
	if err := b.submissions.Clear(ctx); err != nil {
		return "", err
	}
	log.Warn("submissions cleared")
	return "🧹 Submissions cleared.", nil
}

func (b *Bot) runClose(ctx context.Context, _ *slog.Logger, _ string) (string, error) {
	if err := b.submissions.SetOpen(ctx, false); err != nil {
		return "", err
	}
	return "🔒 Submissions are now CLOSED.", nil
}

func (b *Bot) runOpen(ctx context.Context, _ *slog.Logger, _ string) (string, error) {
	if err := b.submissions.SetOpen(ctx, true); err != nil {
		return "", err
	}
	return "🔓 Submissions are now OPEN.", nil
}

func (b *Bot) runCountdown(ctx context.Context, _ *slog.Logger, _ string) (string, error) {
	snap := b.phase.EvaluateOnDemand(b.phase.Now())
	return CountdownText(snap), nil
}

// CountdownText renders a phase snapshot for chat.
func CountdownText(snap domain.PhaseSnapshot) string {
	untilSubmissions := service.FormatDuration(snap.SubmissionDeadline.Sub(snap.Now).Milliseconds())
	untilVoting := service.FormatDuration(snap.VotingDeadline.Sub(snap.Now).Milliseconds())
	switch {
	case snap.SubmissionsOpen:
		return fmt.Sprintf("⏳ Submissions close in %s. Voting closes in %s.", untilSubmissions, untilVoting)
	case snap.VotingOpen:
		return fmt.Sprintf("🗳️ Submissions are closed. Voting closes in %s.", untilVoting)
	default:
		return "🏁 The contest is over."
	}
}

func firstField(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func userMessage(err error) string {
	return internal_errors.UserMessage(err)
}
