package model

// RiskLabel is the human-readable decision returned with every score.
type RiskLabel string

const (
	HighRisk RiskLabel = "High Risk"
	LowRisk  RiskLabel = "Low Risk"
)

// Field is one named value of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is a single labeled row in schema order.
type Record []Field

// Lookup returns the value stored under name.
func (r Record) Lookup(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Prediction is the successful response of POST /predict.
type Prediction struct {
	RiskScore float64   `json:"risk_score"`
	Label     RiskLabel `json:"prediction"`
}

// ErrorBody is the response of a failed request.
type ErrorBody struct {
	Error string `json:"error"`
}
