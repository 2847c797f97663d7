package models

// Prediction is one (label, probability) pair returned by a classifier.
type Prediction struct {
	Label       string  `json:"className"`
	Probability float64 `json:"probability"`
}

// Result holds predictions in the model's class order.
type Result []Prediction

// Clone returns an independent copy so callers can never alter a produced result.
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	out := make(Result, len(r))
	copy(out, r)
	return out
}

type Verdict string

const (
	VerdictPositive Verdict = "positive"
	VerdictNegative Verdict = "negative"
)
