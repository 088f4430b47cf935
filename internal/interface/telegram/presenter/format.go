// Package presenter formats application query results into Telegram HTML.
package presenter

import (
	"fmt"
	"html"
	"strings"

	"github.com/ctfhub/ctf-community-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// FORMATTING HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Escape escapes text for safe HTML embedding.
func Escape(text string) string {
	return html.EscapeString(text)
}

// PositionEmoji returns a medal emoji for top positions.
func PositionEmoji(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}

// FormatScore formats a normalized score with one decimal place.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard formats the leaderboard result for display.
func Leaderboard(result *query.GetLeaderboardResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🏆 <b>Рейтинг — %s</b>\n\n", Escape(result.ScopeLabel)))

	if len(result.Entries) == 0 {
		b.WriteString("Пока нет решений в этой области.\n")
		return b.String()
	}

	for _, entry := range result.Entries {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> — %s\n",
			PositionEmoji(entry.Rank),
			Escape(entry.UserID),
			FormatScore(entry.TotalScore),
		))
		b.WriteString(fmt.Sprintf("     решений: %d, соревнований: %d\n",
			entry.SolveCount,
			entry.Competitions,
		))
	}

	b.WriteString(fmt.Sprintf("\n📊 Участников: %d | Средний балл: %s | Медиана: %s\n",
		result.TotalCount,
		FormatScore(result.AverageScore),
		FormatScore(result.MedianScore),
	))
	if result.HasMore {
		b.WriteString(fmt.Sprintf("Показано %d из %d\n", len(result.Entries), result.TotalCount))
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// USER RANK
// ══════════════════════════════════════════════════════════════════════════════

// UserRank formats a user's rank card for display.
func UserRank(result *query.GetUserRankResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("👤 <b>%s</b> — %s\n\n", Escape(result.UserID), Escape(result.ScopeLabel)))

	if !result.Ranked {
		b.WriteString("Участник ещё не решил ни одного задания в этой области.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Место: <b>%d</b> из %d (топ %d%%)\n",
		result.Rank,
		result.TotalUsers,
		100-result.Percentile,
	))
	b.WriteString(fmt.Sprintf("Балл: <b>%s</b> | Решений: %d\n",
		FormatScore(result.TotalScore),
		result.SolveCount,
	))

	if len(result.Competitions) > 0 {
		b.WriteString("\n<b>Соревнования:</b>\n")
		shown := result.Competitions
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, comp := range shown {
			title := comp.Title
			if title == "" {
				title = comp.CompetitionID
			}
			b.WriteString(fmt.Sprintf("• %s — %s (%d решений)\n",
				Escape(title),
				FormatScore(comp.Score),
				comp.Solves,
			))
		}
		if len(result.Competitions) > 5 {
			b.WriteString(fmt.Sprintf("… и ещё %d\n", len(result.Competitions)-5))
		}
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// EXTENDED STATS
// ══════════════════════════════════════════════════════════════════════════════

// UserStats formats a user's achievement statistics for display.
func UserStats(rank *query.GetUserRankResult, categories *query.GetCategoryStatsResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>Статистика %s</b>\n\n", Escape(rank.UserID)))

	if !rank.Ranked {
		b.WriteString("Участник ещё не решил ни одного задания.\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Место: <b>%d</b> из %d | Балл: <b>%s</b>\n",
		rank.Rank,
		rank.TotalUsers,
		FormatScore(rank.TotalScore),
	))

	if ext := rank.Extended; ext != nil {
		b.WriteString("\n<b>Достижения:</b>\n")
		b.WriteString(fmt.Sprintf("⚡ Быстрых решений: %d (из них молниеносных: %d)\n",
			ext.FastSolves, ext.UltraFastSolves))
		b.WriteString(fmt.Sprintf("🌙 Ночных: %d | 🌅 Утренних: %d | 🎉 В выходные: %d\n",
			ext.NightSolves, ext.MorningSolves, ext.WeekendSolves))
		b.WriteString(fmt.Sprintf("🔥 Сложных: %d | 💀 Экспертных: %d\n",
			ext.HardSolves, ext.ExpertSolves))
		if ext.FirstBloods > 0 {
			b.WriteString(fmt.Sprintf("🩸 Первая кровь: %d\n", ext.FirstBloods))
		}
		if ext.TeamSolves > 0 {
			b.WriteString(fmt.Sprintf("🤝 Командных решений: %d\n", ext.TeamSolves))
		}
		b.WriteString(fmt.Sprintf("📅 Лучшая серия: %d дн. | В сообществе: %d дн.\n",
			ext.LongestStreakDays, ext.MembershipDays))
		if ext.RankImprovement > 0 {
			b.WriteString(fmt.Sprintf("📈 Рост за месяц: +%d позиций\n", ext.RankImprovement))
		}
	}

	if categories != nil && len(categories.Categories) > 0 {
		b.WriteString("\n<b>Категории:</b>\n")
		for _, cat := range categories.Categories {
			b.WriteString(fmt.Sprintf("• %s — %s (%.0f%%)\n",
				Escape(cat.Category),
				FormatScore(cat.Score),
				cat.Percent,
			))
		}
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPETITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Competitions formats the competition activity list for display.
func Competitions(result *query.GetCompetitionsResult) string {
	var b strings.Builder

	b.WriteString("🚩 <b>Соревнования</b>\n\n")

	if len(result.Competitions) == 0 {
		b.WriteString("Пока нет соревнований с решениями.\n")
		return b.String()
	}

	for _, comp := range result.Competitions {
		b.WriteString(fmt.Sprintf("• <b>%s</b>\n", Escape(comp.Title)))
		b.WriteString(fmt.Sprintf("     решений: %d | участников: %d | активность: %s\n",
			comp.TotalSolves,
			comp.UniqueUsers,
			comp.LastSolve.Format("2006-01-02"),
		))
	}

	if result.TotalCount > len(result.Competitions) {
		b.WriteString(fmt.Sprintf("\nПоказано %d из %d\n", len(result.Competitions), result.TotalCount))
	}
	return b.String()
}
