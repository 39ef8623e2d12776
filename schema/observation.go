package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type (
	// MoodType is the named mood category picked by the user. Informational only.
	MoodType string
	// SocialContext tells who the user was with when the observation was logged.
	SocialContext string
)

const (
	MoodHappy     MoodType = "happy"
	MoodSad       MoodType = "sad"
	MoodAnxious   MoodType = "anxious"
	MoodCalm      MoodType = "calm"
	MoodEnergetic MoodType = "energetic"
	MoodTired     MoodType = "tired"
	MoodAngry     MoodType = "angry"
	MoodContent   MoodType = "content"
	MoodStressed  MoodType = "stressed"
	MoodNeutral   MoodType = "neutral"
)

const (
	SocialAlone       SocialContext = "alone"
	SocialWithFriends SocialContext = "with_friends"
	SocialWithFamily  SocialContext = "with_family"
	SocialWork        SocialContext = "work"
	SocialPublic      SocialContext = "public"
)

var moodTypes = []MoodType{MoodHappy, MoodSad, MoodAnxious, MoodCalm, MoodEnergetic, MoodTired, MoodAngry, MoodContent, MoodStressed, MoodNeutral}
var socialContexts = []SocialContext{SocialAlone, SocialWithFriends, SocialWithFamily, SocialWork, SocialPublic}

// MoodObservation one user's mood record, immutable once created by the write path.
type MoodObservation struct {
	ID            string        `json:"id" bson:"_id"`
	UserID        string        `json:"userId" bson:"userId"`
	Timestamp     time.Time     `json:"timestamp" bson:"timestamp"`
	MoodScore     int           `json:"moodScore" bson:"moodScore"`
	MoodType      MoodType      `json:"moodType" bson:"moodType"`
	Energy        int           `json:"energy" bson:"energy"`
	Anxiety       int           `json:"anxiety" bson:"anxiety"`
	Stress        int           `json:"stress" bson:"stress"`
	SleepHours    float64       `json:"sleepHours" bson:"sleepHours"`
	Activities    []string      `json:"activities" bson:"activities"`
	SocialContext SocialContext `json:"socialContext,omitempty" bson:"socialContext,omitempty"`
	Notes         string        `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Valid reports whether m is one of the known mood categories
func (m MoodType) Valid() bool {
	for _, t := range moodTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known social contexts
func (s SocialContext) Valid() bool {
	for _, c := range socialContexts {
		if c == s {
			return true
		}
	}
	return false
}

// Label human readable form used in insight strings ("with friends")
func (s SocialContext) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Validate returns the first out of range field, nil for a well-formed observation.
// An empty social context is allowed, the field is optional.
func (o MoodObservation) Validate() error {
	if o.UserID == "" {
		return fmt.Errorf("observation %q: missing userId", o.ID)
	}
	if o.Timestamp.IsZero() {
		return fmt.Errorf("observation %q: missing timestamp", o.ID)
	}
	scales := []struct {
		name  string
		value int
	}{
		{"moodScore", o.MoodScore},
		{"energy", o.Energy},
		{"anxiety", o.Anxiety},
		{"stress", o.Stress},
	}
	for _, s := range scales {
		if s.value < 1 || s.value > 10 {
			return fmt.Errorf("observation %q: %s %d out of range [1,10]", o.ID, s.name, s.value)
		}
	}
	if o.SleepHours < 0 || o.SleepHours > 24 {
		return fmt.Errorf("observation %q: sleepHours %v out of range [0,24]", o.ID, o.SleepHours)
	}
	if !o.MoodType.Valid() {
		return fmt.Errorf("observation %q: unknown moodType %q", o.ID, o.MoodType)
	}
	if o.SocialContext != "" && !o.SocialContext.Valid() {
		return fmt.Errorf("observation %q: unknown socialContext %q", o.ID, o.SocialContext)
	}
	return nil
}

// ActivitySet returns the distinct, trimmed, non blank activity labels sorted
// alphabetically so that one observation never counts twice for the same label.
func (o MoodObservation) ActivitySet() []string {
	if len(o.Activities) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(o.Activities))
	labels := make([]string, 0, len(o.Activities))
	for _, a := range o.Activities {
		label := strings.TrimSpace(a)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Normalize returns a copy of o with a UTC timestamp and collapsed activities
func (o MoodObservation) Normalize() MoodObservation {
	o.Timestamp = o.Timestamp.UTC()
	o.Activities = o.ActivitySet()
	if o.Activities == nil {
		o.Activities = []string{}
	}
	return o
}

// SortByTimestamp sorts observations chronologically, ties broken by id
func SortByTimestamp(observations []MoodObservation) {
	sort.SliceStable(observations, func(i, j int) bool {
		if observations[i].Timestamp.Equal(observations[j].Timestamp) {
			return observations[i].ID < observations[j].ID
		}
		return observations[i].Timestamp.Before(observations[j].Timestamp)
	})
}
