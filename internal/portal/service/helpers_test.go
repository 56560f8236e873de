package service

import (
	"github.com/xela07ax/ovcare-portal/internal/infra"
	"github.com/xela07ax/ovcare-portal/internal/risk"
	"go.uber.org/zap"
)

type testEnv struct {
	store     *memStore
	pub       *memPublisher
	auditor   *memAuditor
	risks     *RiskService
	entries   *BiomarkerService
	patients  *PatientService
	doctors   *DoctorService
	predictor *fakePredictor
}

// newEnv собирает сервисы поверх памяти; predictor == nil — модель не настроена
func newEnv(predictor *fakePredictor) *testEnv {
	log := zap.NewNop()
	env := &testEnv{
		store:     newMemStore(),
		pub:       &memPublisher{},
		auditor:   &memAuditor{},
		predictor: predictor,
	}

	var p risk.Predictor
	if predictor != nil {
		p = predictor
	}
	resolver := risk.NewResolver(env.store, p, risk.DefaultWindow, log)
	env.risks = NewRiskService(resolver, env.store, nil, infra.RiskConfig{}, infra.NewMetrics(nil), log)
	env.entries = NewBiomarkerService(env.store, env.risks, env.pub, log)
	env.patients = NewPatientService(env.store, env.risks, env.entries, p, log)
	env.doctors = NewDoctorService(env.store, env.risks, env.entries, env.auditor, log)
	return env
}
