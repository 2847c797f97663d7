package page

import (
	"errors"

	"camclassify/internal/models"
)

// Threshold splits the first class probability into the two verdicts.
const Threshold = 0.5

var ErrEmptyResult = errors.New("empty prediction result")

// Classify maps the probability of class 0 to a verdict. Class 0 is the
// positive class: below Threshold is negative, anything else positive.
func Classify(result models.Result) (models.Verdict, error) {
	if len(result) == 0 {
		return "", ErrEmptyResult
	}
	if result[0].Probability < Threshold {
		return models.VerdictNegative, nil
	}
	return models.VerdictPositive, nil
}

type Presenter struct {
	view View
}

func NewPresenter(view View) *Presenter {
	return &Presenter{view: view}
}

// Present sets the indicator state and reveals the result panel.
func (p *Presenter) Present(result models.Result) (models.Verdict, error) {
	verdict, err := Classify(result)
	if err != nil {
		return "", err
	}

	p.view.SetVerdict(verdict)
	p.view.RevealResult()

	return verdict, nil
}
