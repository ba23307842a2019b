package ofgl

import "github.com/Knetic/govaluate"

// debtAggregate is the OFGL aggregate carrying the outstanding debt, the
// figure the profile reports as total budget.
const debtAggregate = "Encours de dette"

// aggregateParams maps OFGL aggregate labels to the parameter names the
// derived expressions reference.
var aggregateParams = map[string]string{
	debtAggregate:                        "encours_dette",
	"Epargne brute":                      "epargne_brute",
	"Recettes de fonctionnement":         "recettes_fonctionnement",
	"Remboursements d'emprunts hors GAD": "remboursements_emprunts",
}

// derived is a ratio computed from the raw aggregates. The divisor guard
// keeps a metric absent, rather than infinite, when its denominator is zero
// or missing.
type derived struct {
	expr    string
	divisor string
}

// derivedMetrics declares the debt ratios of a profile as explicit
// expressions over the aggregate parameters.
var derivedMetrics = map[string]derived{
	"debt_repayment_capacity": {expr: "encours_dette / epargne_brute", divisor: "epargne_brute"},
	"debt_ratio":              {expr: "encours_dette / recettes_fonctionnement * 100", divisor: "recettes_fonctionnement"},
	"debt_duration":           {expr: "encours_dette / remboursements_emprunts", divisor: "remboursements_emprunts"},
}

func (d derived) evaluate(aggregates map[string]float64) (float64, bool) {
	if aggregates[d.divisor] == 0 {
		return 0, false
	}
	exp, err := govaluate.NewEvaluableExpression(d.expr)
	if err != nil {
		return 0, false
	}
	params := make(map[string]interface{}, len(aggregates))
	for k, v := range aggregates {
		params[k] = v
	}
	result, err := exp.Evaluate(params)
	if err != nil {
		return 0, false
	}
	v, ok := result.(float64)
	return v, ok
}
