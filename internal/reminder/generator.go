// Package reminder classifies overdue fees into reminder tiers and renders
// the parent-facing message for each tier.
package reminder

import (
	"bytes"
	"errors"
	"text/template"
)

type Tier string

const (
	TierFirst  Tier = "first"
	TierSecond Tier = "second"
	TierFinal  Tier = "final"
)

// Thresholds are overdue-day cutoffs per tier. Boundaries are inclusive: an
// obligation overdue by exactly a threshold value belongs to that tier.
type Thresholds struct {
	First  int
	Second int
	Final  int
}

var ErrInvalidThresholds = errors.New("invalid_thresholds")

func (t Thresholds) Validate() error {
	if t.First <= 0 || t.Second <= t.First || t.Final <= t.Second {
		return ErrInvalidThresholds
	}
	return nil
}

// Classify maps an overdue-day count to the highest tier whose threshold it
// has met. ok is false when the count is below the first threshold.
func Classify(overdueDays int, t Thresholds) (Tier, bool) {
	switch {
	case overdueDays >= t.Final:
		return TierFinal, true
	case overdueDays >= t.Second:
		return TierSecond, true
	case overdueDays >= t.First:
		return TierFirst, true
	default:
		return "", false
	}
}

// Input carries the fields available to the message templates.
type Input struct {
	StudentName  string
	GuardianName string
	FeeHead      string
	Term         string
	Outstanding  string // formatted amount, e.g. "UGX 150,000"
	OverdueDays  int
	SchoolName   string
}

var tierTemplates = map[Tier]*template.Template{
	TierFirst: template.Must(template.New("first").Parse(
		"Dear {{.GuardianName}}, this is a friendly reminder from {{.SchoolName}}: " +
			"{{.StudentName}}'s {{.FeeHead}} for {{.Term}} has an outstanding balance of " +
			"{{.Outstanding}}, now {{.OverdueDays}} days past due. Kindly arrange payment.")),
	TierSecond: template.Must(template.New("second").Parse(
		"Dear {{.GuardianName}}, {{.SchoolName}} records show {{.StudentName}}'s " +
			"{{.FeeHead}} for {{.Term}} is still unpaid: {{.Outstanding}} outstanding, " +
			"{{.OverdueDays}} days overdue. Please clear the balance to avoid further charges.")),
	TierFinal: template.Must(template.New("final").Parse(
		"Dear {{.GuardianName}}, FINAL NOTICE from {{.SchoolName}}: {{.StudentName}}'s " +
			"{{.FeeHead}} for {{.Term}} remains unpaid {{.OverdueDays}} days after the due " +
			"date ({{.Outstanding}} outstanding). Please contact the bursar's office immediately.")),
}

var ErrUnknownTier = errors.New("unknown_tier")

// Render produces the message body for a tier.
func Render(tier Tier, in Input) (string, error) {
	tmpl, ok := tierTemplates[tier]
	if !ok {
		return "", ErrUnknownTier
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
