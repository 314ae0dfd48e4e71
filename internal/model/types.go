package model

// Prediction is a single (label, probability) pair from the classifier.
type Prediction struct {
	Index int     `json:"index"`
	Style string  `json:"style"`
	Prob  float64 `json:"prob"`
}

// PredictResponse is the /predict-style response body: the best prediction
// plus the ordered top-k list. Predicted is always TopK[0].
type PredictResponse struct {
	Predicted Prediction   `json:"predicted"`
	TopK      []Prediction `json:"top_k"`
}
