package feature

// Signal is one numeric behavioral signal. Missing marks a value the
// upstream store could not supply; consumers fall back to the field's
// documented default instead of treating zero as observed.
type Signal struct {
	Value   float64
	Missing bool
}

// Present returns a non-missing signal.
func Present(v float64) Signal {
	return Signal{Value: v}
}

// Absent returns a missing signal.
func Absent() Signal {
	return Signal{Missing: true}
}

// Or returns the signal's value, or def when the signal is missing.
func (s Signal) Or(def float64) float64 {
	if s.Missing {
		return def
	}
	return s.Value
}

// Snapshot is the full signal set for one user at one point in time.
// Fields are grouped by family; the grouping drives per-component
// embedding weights downstream.
//
// Defaults applied when a signal is missing: rates and counts 0,
// PreferredHour and HourOfDay 12 (midday), DayOfWeek 3, and
// DaysSinceLastSeen 30 (a month of silence).
type Snapshot struct {
	// Behavior: activity volume and persistence.
	SessionsPerWeek Signal // 0..21 typical
	CheckInsTotal   Signal // lifetime count
	StreakLength    Signal // consecutive active days
	CompletionRate  Signal // [0,1]
	HabitAgeWeeks   Signal // weeks since first activity

	// Preference: when and how the user likes to engage.
	PreferredHour Signal // 0..23
	WeekdayRate   Signal // [0,1] share of weekday activity
	WeekendRate   Signal // [0,1]
	MorningRate   Signal // [0,1] share of 5:00-12:00 activity
	EveningRate   Signal // [0,1] share of 17:00-22:00 activity

	// Engagement: responsiveness to outreach.
	OpenRate     Signal // [0,1]
	ResponseRate Signal // [0,1]
	DwellSeconds Signal // mean seconds per interaction
	ReboundRate  Signal // [0,1] returns after a lapse

	// Social: community ties.
	FriendCount            Signal
	SharedGoals            Signal
	EncouragementsSent     Signal
	EncouragementsReceived Signal

	// Temporal: situational recency.
	HourOfDay         Signal // 0..23
	DayOfWeek         Signal // 0=Sunday..6
	DaysSinceLastSeen Signal
}

// signals returns every field in declaration order. Kept private; the
// schema is closed and callers address fields by name.
func (s Snapshot) signals() []Signal {
	return []Signal{
		s.SessionsPerWeek, s.CheckInsTotal, s.StreakLength, s.CompletionRate, s.HabitAgeWeeks,
		s.PreferredHour, s.WeekdayRate, s.WeekendRate, s.MorningRate, s.EveningRate,
		s.OpenRate, s.ResponseRate, s.DwellSeconds, s.ReboundRate,
		s.FriendCount, s.SharedGoals, s.EncouragementsSent, s.EncouragementsReceived,
		s.HourOfDay, s.DayOfWeek, s.DaysSinceLastSeen,
	}
}

// Count is the number of signals in the schema.
const Count = 21

// Completeness returns the fraction of signals that are present, in
// [0,1]. An all-missing snapshot returns 0.
func (s Snapshot) Completeness() float64 {
	sigs := s.signals()
	present := 0
	for _, sig := range sigs {
		if !sig.Missing {
			present++
		}
	}
	return float64(present) / float64(len(sigs))
}

// Empty returns a snapshot with every signal missing.
func Empty() Snapshot {
	var s Snapshot
	s.SessionsPerWeek = Absent()
	s.CheckInsTotal = Absent()
	s.StreakLength = Absent()
	s.CompletionRate = Absent()
	s.HabitAgeWeeks = Absent()
	s.PreferredHour = Absent()
	s.WeekdayRate = Absent()
	s.WeekendRate = Absent()
	s.MorningRate = Absent()
	s.EveningRate = Absent()
	s.OpenRate = Absent()
	s.ResponseRate = Absent()
	s.DwellSeconds = Absent()
	s.ReboundRate = Absent()
	s.FriendCount = Absent()
	s.SharedGoals = Absent()
	s.EncouragementsSent = Absent()
	s.EncouragementsReceived = Absent()
	s.HourOfDay = Absent()
	s.DayOfWeek = Absent()
	s.DaysSinceLastSeen = Absent()
	return s
}

// Values flattens the snapshot into named numeric values on a [0,1]
// scale, suitable for per-feature comparison against option profiles.
// Missing signals are omitted.
func (s Snapshot) Values() map[string]float64 {
	out := make(map[string]float64, Count)
	put := func(name string, sig Signal, scale float64) {
		if !sig.Missing {
			v := sig.Value / scale
			if v > 1 {
				v = 1
			}
			out[name] = v
		}
	}
	put("sessions_per_week", s.SessionsPerWeek, 21)
	put("check_ins_total", s.CheckInsTotal, 1000)
	put("streak_length", s.StreakLength, 90)
	put("completion_rate", s.CompletionRate, 1)
	put("habit_age_weeks", s.HabitAgeWeeks, 104)
	put("preferred_hour", s.PreferredHour, 23)
	put("weekday_rate", s.WeekdayRate, 1)
	put("weekend_rate", s.WeekendRate, 1)
	put("morning_rate", s.MorningRate, 1)
	put("evening_rate", s.EveningRate, 1)
	put("open_rate", s.OpenRate, 1)
	put("response_rate", s.ResponseRate, 1)
	put("dwell_seconds", s.DwellSeconds, 600)
	put("rebound_rate", s.ReboundRate, 1)
	put("friend_count", s.FriendCount, 50)
	put("shared_goals", s.SharedGoals, 10)
	put("encouragements_sent", s.EncouragementsSent, 100)
	put("encouragements_received", s.EncouragementsReceived, 100)
	put("hour_of_day", s.HourOfDay, 23)
	put("day_of_week", s.DayOfWeek, 6)
	put("days_since_last_seen", s.DaysSinceLastSeen, 30)
	return out
}

// FromValues builds a snapshot from named values on their natural
// scales (the inverse naming of Values, without rescaling for rates
// and with raw units for counts and hours). Unknown names are
// ignored; absent names stay missing. Option profiles use this to
// embed into the same vector space as users.
func FromValues(values map[string]float64) Snapshot {
	s := Empty()
	set := func(name string, sig *Signal) {
		if v, ok := values[name]; ok {
			*sig = Present(v)
		}
	}
	set("sessions_per_week", &s.SessionsPerWeek)
	set("check_ins_total", &s.CheckInsTotal)
	set("streak_length", &s.StreakLength)
	set("completion_rate", &s.CompletionRate)
	set("habit_age_weeks", &s.HabitAgeWeeks)
	set("preferred_hour", &s.PreferredHour)
	set("weekday_rate", &s.WeekdayRate)
	set("weekend_rate", &s.WeekendRate)
	set("morning_rate", &s.MorningRate)
	set("evening_rate", &s.EveningRate)
	set("open_rate", &s.OpenRate)
	set("response_rate", &s.ResponseRate)
	set("dwell_seconds", &s.DwellSeconds)
	set("rebound_rate", &s.ReboundRate)
	set("friend_count", &s.FriendCount)
	set("shared_goals", &s.SharedGoals)
	set("encouragements_sent", &s.EncouragementsSent)
	set("encouragements_received", &s.EncouragementsReceived)
	set("hour_of_day", &s.HourOfDay)
	set("day_of_week", &s.DayOfWeek)
	set("days_since_last_seen", &s.DaysSinceLastSeen)
	return s
}

// ContextValues flattens the snapshot's situational signals into the
// named numeric map consumed by the bandit's contextual scorer.
// Missing signals use their documented defaults so the context vector
// keeps a fixed shape.
func (s Snapshot) ContextValues() map[string]float64 {
	return map[string]float64{
		"completion_rate": s.CompletionRate.Or(0),
		"engagement":      s.ResponseRate.Or(0),
		"hour_of_day":     s.HourOfDay.Or(12) / 23.0,
		"recency":         s.DaysSinceLastSeen.Or(30) / 30.0,
		"streak":          s.StreakLength.Or(0) / 30.0,
	}
}
