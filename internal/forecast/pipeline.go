package forecast

var _ Regressor = (*Pipeline)(nil)

// Pipeline standardises features before handing them to the forest.
type Pipeline struct {
	Params TreeParams
	scaler *Scaler
	forest *Forest
}

func FitPipeline(x [][]float64, y []float64, p TreeParams, seed uint32) (*Pipeline, error) {
	scaler := FitScaler(x)
	forest, err := FitForest(scaler.TransformAll(x), y, p, seed)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Params: p, scaler: scaler, forest: forest}, nil
}

func (p *Pipeline) Predict(features []float64) float64 {
	return p.forest.Predict(p.scaler.Transform(features))
}
