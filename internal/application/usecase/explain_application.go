package usecase

import (
	"context"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

// ExplainApplication returns the rationale for a record without scoring it.
// It needs no artifacts.
type ExplainApplication struct {
	engine *service.RationaleEngine
}

// NewExplainApplication creates a new ExplainApplication use case.
func NewExplainApplication() *ExplainApplication {
	return &ExplainApplication{engine: service.NewRationaleEngine()}
}

// Execute runs the rationale rules over req.Features.
func (uc *ExplainApplication) Execute(_ context.Context, req dto.ExplainRequest) dto.ExplainResponse {
	tags := uc.engine.Explain(model.NewFeatureRecord(req.Features), req.Probability)
	return dto.ExplainResponse{
		RationaleTags: tags,
		Rationale:     dto.JoinRationale(tags),
	}
}
