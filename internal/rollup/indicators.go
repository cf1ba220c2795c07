package rollup

// Indicator formulas shared by every metric family. Division by a zero
// or missing denominator never raises and never yields Inf/NaN; it
// propagates as an undefined Percent which renders blank.

func almostZero(v float64) bool {
	return v > -0.0001 && v < 0.0001
}

// achievementPct is actual vs full-month target.
func achievementPct(actual, target float64) Percent {
	if almostZero(target) {
		return Percent{}
	}
	return PercentOf(actual / target * 100)
}

// drrPct projects whether month-to-date pace will hit the full-month
// target if continued linearly: actual against the day-prorated target.
func drrPct(actual, target float64, day, days int) Percent {
	if almostZero(target) || day <= 0 || days <= 0 {
		return Percent{}
	}
	prorated := float64(day) / float64(days) * target
	if almostZero(prorated) {
		return Percent{}
	}
	return PercentOf(actual / prorated * 100)
}

// growthPct is the period-over-period delta ratio used for MoM and YoY.
func growthPct(current, prior float64) Percent {
	if almostZero(prior) {
		return Percent{}
	}
	return PercentOf((current - prior) / prior * 100)
}

// ytdComputedPct compares the cumulative year-to-date actual with the
// monthly target accumulated over the elapsed months. Targets are flat
// per month in the source warehouse, so the year-to-date target is
// monthly target times months elapsed.
func ytdComputedPct(ytdActual, monthlyTarget float64, monthsElapsed int) Percent {
	if monthsElapsed <= 0 {
		return Percent{}
	}
	ytdTarget := monthlyTarget * float64(monthsElapsed)
	if almostZero(ytdTarget) {
		return Percent{}
	}
	return PercentOf(ytdActual / ytdTarget * 100)
}
