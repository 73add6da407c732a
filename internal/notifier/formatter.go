package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"BreakoutScanner/internal/model"
)

// FormatTickerReport formats one symbol's scan as a Telegram HTML message,
// listing at most maxTrades of the most recent trades.
func FormatTickerReport(r *model.TickerReport, maxTrades int) string {
	symbol := html.EscapeString(r.Symbol)
	switch {
	case r.Err != nil:
		return fmt.Sprintf("❌ <b>%s</b> analysis failed: %s", symbol, html.EscapeString(r.Err.Error()))
	case r.NoData:
		return fmt.Sprintf("⚠️ No data found for <b>%s</b>. Please check the symbol.", symbol)
	case r.Result == nil || len(r.Result.Trades) == 0:
		return fmt.Sprintf("ℹ️ No breakout conditions found for <b>%s</b>.", symbol)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Analysis for %s</b> | %s → %s\n", symbol,
		r.Start.Format(model.DateLayout), r.End.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("Volume &gt; %.0f%% · Change &gt; %.1f%% · Hold %dd\n\n",
		r.Params.VolumeThresholdPct, r.Params.PriceThresholdPct, r.Params.HoldingPeriodDays))

	b.WriteString(FormatSummary(r.Summary))

	trades := r.Result.Trades
	if maxTrades > 0 && len(trades) > maxTrades {
		trades = trades[len(trades)-maxTrades:]
	}
	b.WriteString(fmt.Sprintf("\n📈 <b>Recent trades</b> (%d of %d)\n", len(trades), len(r.Result.Trades)))
	for _, tr := range trades {
		b.WriteString(fmt.Sprintf("  %s %.2f → %s %.2f  %+.2f%%  (vol ×%.2f)\n",
			tr.EntryDate.Format(model.DateLayout), tr.EntryPrice,
			tr.ExitDate.Format(model.DateLayout), tr.ExitPrice,
			tr.ReturnPct, tr.VolumeRatio))
	}
	if n := len(r.Result.Skipped); n > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d breakout(s) skipped\n", n))
	}
	return b.String()
}

// FormatSummary formats the six summary metrics.
func FormatSummary(s model.SummaryStatistics) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total trades: %d\n", s.TotalTrades))
	b.WriteString(fmt.Sprintf("Win rate: %.2f%%\n", s.WinRate))
	b.WriteString(fmt.Sprintf("Average return: %+.2f%%\n", s.AverageReturn))
	b.WriteString(fmt.Sprintf("Max return: %+.2f%%\n", s.MaxReturn))
	b.WriteString(fmt.Sprintf("Min return: %+.2f%%\n", s.MinReturn))
	b.WriteString(fmt.Sprintf("Std dev: %.2f\n", s.StdDev))
	return b.String()
}

// FormatDigest formats a one-line-per-symbol overview of a scheduled run.
func FormatDigest(reports []*model.TickerReport, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>Breakout scan</b> | %s\n\n", now.Format(model.DateLayout)))
	for _, r := range reports {
		symbol := html.EscapeString(r.Symbol)
		switch {
		case r.Err != nil:
			b.WriteString(fmt.Sprintf("%s: error\n", symbol))
		case r.NoData:
			b.WriteString(fmt.Sprintf("%s: no data\n", symbol))
		default:
			s := r.Summary
			b.WriteString(fmt.Sprintf("%s: %d trades, win %.0f%%, avg %+.2f%%\n",
				symbol, s.TotalTrades, s.WinRate, s.AverageReturn))
		}
	}
	return b.String()
}

// HelpText lists the bot commands.
const HelpText = "Available commands:\n" +
	"• /scan SYMBOL[,SYMBOL...] - analyze over the configured lookback\n" +
	"• /last SYMBOL - most recent recorded run\n" +
	"• /tickers - list scheduled tickers\n" +
	"• /run - run the scheduled scan now"
